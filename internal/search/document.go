// File: internal/search/document.go
package search

import (
	"errors"
	"time"

	"wecare_donations_backend/internal/donation"
)

// DonationsIndexName is the Elasticsearch index holding pending donations.
const DonationsIndexName = "donations"

// donationsMapping returns the mapping for the donations index.
func donationsMapping() map[string]interface{} {
	return map[string]interface{}{
		"mappings": map[string]interface{}{
			"properties": map[string]interface{}{
				"title":         map[string]interface{}{"type": "text"},
				"description":   map[string]interface{}{"type": "text"},
				"category_id":   map[string]interface{}{"type": "keyword"},
				"category_name": map[string]interface{}{"type": "text", "fields": map[string]interface{}{"keyword": map[string]interface{}{"type": "keyword", "ignore_above": 256}}},
				"user_id":       map[string]interface{}{"type": "keyword"},
				"status":        map[string]interface{}{"type": "keyword"},
				"location":      map[string]interface{}{"type": "geo_point"},
				"created_at":    map[string]interface{}{"type": "date"},
			},
		},
	}
}

// GeoPoint is the lat/lon object form of a geo_point.
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Document is the indexed form of a donation.
type Document struct {
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	CategoryID   string    `json:"category_id"`
	CategoryName string    `json:"category_name,omitempty"`
	UserID       string    `json:"user_id"`
	Status       string    `json:"status"`
	Location     *GeoPoint `json:"location,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// ToDocument converts a donation to its index document. The Category
// association should be loaded for category_name to be filled.
func ToDocument(d *donation.Donation) (Document, error) {
	if d == nil {
		return Document{}, errors.New("donation cannot be nil")
	}
	doc := Document{
		Title:        d.Title,
		Description:  d.Description,
		CategoryID:   d.CategoryID.String(),
		CategoryName: d.Category.Name,
		UserID:       d.UserID.String(),
		Status:       string(d.Status),
		CreatedAt:    d.CreatedAt,
	}
	if d.HasLocation() {
		doc.Location = &GeoPoint{Lat: *d.Latitude, Lon: *d.Longitude}
	}
	return doc, nil
}
