package importer

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"gorm.io/gorm"

	"github.com/foodcartapp/backend/internal/models"
)

type ProductRecord struct {
	Type        string  `json:"type"`
	Title       string  `json:"title"`
	Price       float64 `json:"price"`
	Img         string  `json:"img"`
	Description string  `json:"description"`
}

func LoadProductRecords(path string) ([]ProductRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var records []ProductRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return records, nil
}

type ProductStats struct {
	Created int
	Updated int
}

// ImportProducts upserts each record keyed on the product name, updating
// category, price, image and description in place. Re-running the same file,
// with or without price edits, never stacks duplicates.
func ImportProducts(db *gorm.DB, records []ProductRecord, out io.Writer) (ProductStats, error) {
	var stats ProductStats
	for _, rec := range records {
		category := models.ProductCategory{Name: rec.Type}
		if err := db.Where(models.ProductCategory{Name: rec.Type}).FirstOrCreate(&category).Error; err != nil {
			return stats, fmt.Errorf("category %q: %w", rec.Type, err)
		}

		var product models.Product
		err := db.Where(models.Product{Name: rec.Title}).First(&product).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			product = models.Product{
				Name:        rec.Title,
				CategoryID:  &category.ID,
				Price:       rec.Price,
				Image:       rec.Img,
				Description: rec.Description,
			}
			if err := db.Create(&product).Error; err != nil {
				return stats, fmt.Errorf("product %q: %w", rec.Title, err)
			}
			stats.Created++
			fmt.Fprintf(out, "created: %s\n", product.Name)
		case err != nil:
			return stats, fmt.Errorf("product %q: %w", rec.Title, err)
		default:
			product.CategoryID = &category.ID
			product.Price = rec.Price
			product.Image = rec.Img
			product.Description = rec.Description
			if err := db.Save(&product).Error; err != nil {
				return stats, fmt.Errorf("product %q: %w", rec.Title, err)
			}
			stats.Updated++
			fmt.Fprintf(out, "updated: %s\n", product.Name)
		}
	}
	return stats, nil
}
