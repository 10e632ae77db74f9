package importer

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"gorm.io/gorm"

	"github.com/foodcartapp/backend/internal/models"
)

type RestaurantRecord struct {
	Title        string `json:"title"`
	Address      string `json:"address"`
	ContactPhone string `json:"contact_phone"`
}

type RestaurantStats struct {
	Created int
	Skipped int
	Failed  int
}

var errBadSource = errors.New("bad source")

// FetchTimeout is the per-request limit the loadrestaurants command uses.
const FetchTimeout = 5 * time.Second

// ConnectBackoff is how long a run pauses after a connection-level failure
// before moving on to the next source.
const ConnectBackoff = 20 * time.Second

func fetchRestaurants(client *http.Client, rawURL string) ([]RestaurantRecord, error) {
	resp, err := client.Get(rawURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: %s returned %s", errBadSource, rawURL, resp.Status)
	}

	var records []RestaurantRecord
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		// keep the read error in the chain: a timeout mid-body must still
		// classify as a timeout, not as a malformed payload
		return nil, fmt.Errorf("%w: %s sent malformed payload: %w", errBadSource, rawURL, err)
	}
	return records, nil
}

// ImportRestaurants processes each source URL independently: a read timeout
// skips the source silently, an HTTP-level error is reported and skipped, a
// connection failure is reported and followed by a fixed pause before the
// next source. No failure aborts the run.
func ImportRestaurants(db *gorm.DB, client *http.Client, urls []string, out, errOut io.Writer, backoff time.Duration) RestaurantStats {
	var stats RestaurantStats
	for _, u := range urls {
		records, err := fetchRestaurants(client, u)
		if err != nil {
			stats.Failed++
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				continue
			}
			if errors.Is(err, errBadSource) {
				fmt.Fprintf(errOut, "skipping %s: %v\n", u, err)
				continue
			}
			fmt.Fprintf(errOut, "connection failed for %s: %v\n", u, err)
			time.Sleep(backoff)
			continue
		}

		for _, rec := range records {
			restaurant := models.Restaurant{
				Name:         rec.Title,
				Address:      rec.Address,
				ContactPhone: rec.ContactPhone,
			}
			res := db.Where(models.Restaurant{
				Name:         rec.Title,
				Address:      rec.Address,
				ContactPhone: rec.ContactPhone,
			}).FirstOrCreate(&restaurant)
			if res.Error != nil {
				stats.Skipped++
				fmt.Fprintf(errOut, "skipping %q: %v\n", rec.Title, res.Error)
				continue
			}
			if res.RowsAffected == 0 {
				stats.Skipped++
				fmt.Fprintf(out, "already there: %s\n", rec.Title)
				continue
			}
			stats.Created++
			fmt.Fprintf(out, "created: %s\n", rec.Title)
		}
	}
	return stats
}
