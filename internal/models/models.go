package models

import (
	"gorm.io/gorm"
)

type Restaurant struct {
	ID           uint   `gorm:"primaryKey;autoIncrement"                           json:"id"`
	Name         string `gorm:"size:50;not null;uniqueIndex:idx_restaurant_source" json:"name"`
	Address      string `gorm:"size:100;uniqueIndex:idx_restaurant_source"         json:"address"`
	ContactPhone string `gorm:"size:50;uniqueIndex:idx_restaurant_source"          json:"contact_phone"`

	MenuItems []MenuItem `gorm:"foreignKey:RestaurantID;constraint:OnDelete:CASCADE" json:"-"`
}

type ProductCategory struct {
	ID   uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Name string `gorm:"size:50;uniqueIndex"      json:"name"`
}

type Product struct {
	ID          uint             `gorm:"primaryKey;autoIncrement"                           json:"id"`
	Name        string           `gorm:"size:50;not null;uniqueIndex"                       json:"name"`
	CategoryID  *uint            `gorm:"index"                                              json:"category_id,omitempty"`
	Category    *ProductCategory `gorm:"foreignKey:CategoryID;constraint:OnDelete:SET NULL" json:"category,omitempty"`
	Price       float64          `gorm:"type:decimal(8,2);not null;check:price >= 0"        json:"price"`
	Image       string           `gorm:"size:255"                                           json:"image"`
	Special     bool             `gorm:"default:false;index"                                json:"special"`
	Description string           `gorm:"size:250"                                           json:"description"`
}

// MenuItem.Availability is a pointer so that an explicit false survives the
// insert; with a plain bool GORM drops the zero value in favor of the column
// default and an unlisted item could never be stored.
type MenuItem struct {
	ID           uint       `gorm:"primaryKey;autoIncrement"                            json:"id"`
	RestaurantID uint       `gorm:"not null;uniqueIndex:idx_menu_item"                  json:"restaurant_id"`
	Restaurant   Restaurant `gorm:"foreignKey:RestaurantID;constraint:OnDelete:CASCADE" json:"-"`
	ProductID    uint       `gorm:"not null;uniqueIndex:idx_menu_item"                  json:"product_id"`
	Product      Product    `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"    json:"-"`
	Availability *bool      `gorm:"default:true;index"                                  json:"availability"`
}

// AvailableProducts narrows a products query to those referenced by at least
// one menu item with availability = true, deduplicated.
func AvailableProducts(db *gorm.DB) *gorm.DB {
	return db.Model(&Product{}).
		Distinct("products.*").
		Joins("JOIN menu_items ON menu_items.product_id = products.id").
		Where("menu_items.availability = ?", true)
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&Restaurant{},
		&ProductCategory{},
		&Product{},
		&MenuItem{},
		&Order{},
		&OrderElement{},
		&Place{},
	)
}
