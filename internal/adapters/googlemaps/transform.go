package googlemaps

import (
	"strings"
	"time"

	"github.com/mapleads/api/internal/core/domain"
)

type latLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type placeResult struct {
	PlaceID          string `json:"place_id"`
	Name             string `json:"name"`
	FormattedAddress string `json:"formatted_address"`
	Vicinity         string `json:"vicinity"`
	AddressComponents []struct {
		LongName  string   `json:"long_name"`
		ShortName string   `json:"short_name"`
		Types     []string `json:"types"`
	} `json:"address_components"`
	Geometry struct {
		Location latLng `json:"location"`
	} `json:"geometry"`
	Types            []string `json:"types"`
	Rating           float64  `json:"rating"`
	UserRatingsTotal int      `json:"user_ratings_total"`
	PriceLevel       int      `json:"price_level"`
	Website          string   `json:"website"`
	FormattedPhone   string   `json:"formatted_phone_number"`
	InternationalPhone string `json:"international_phone_number"`
	EditorialSummary *struct {
		Overview string `json:"overview"`
	} `json:"editorial_summary"`
}

// toBusiness maps one provider place onto the domain model.
func toBusiness(p placeResult) domain.Business {
	categories := make([]string, 0, len(p.Types))
	for _, t := range p.Types {
		categories = append(categories, formatCategory(t))
	}

	b := domain.Business{
		PlaceID:          p.PlaceID,
		Name:             p.Name,
		Location:         domain.GeoPoint{Lat: p.Geometry.Location.Lat, Lon: p.Geometry.Location.Lng},
		Categories:       categories,
		Rating:           p.Rating,
		ReviewCount:      p.UserRatingsTotal,
		PriceLevel:       p.PriceLevel,
		Website:          p.Website,
		FormattedAddress: p.FormattedAddress,
		MapsURL:          "https://www.google.com/maps/place/?q=place_id:" + p.PlaceID,
		LastFetched:      time.Now(),
	}
	if len(categories) > 0 {
		b.Category = categories[0]
	}
	if b.FormattedAddress == "" {
		b.FormattedAddress = p.Vicinity
	}

	// The phone fields are populated only by the details endpoint; list
	// results leave them empty.
	b.Phone = p.FormattedPhone
	if b.Phone == "" {
		b.Phone = p.InternationalPhone
	}

	if p.EditorialSummary != nil && p.EditorialSummary.Overview != "" {
		b.Description = p.EditorialSummary.Overview
	} else if len(categories) > 0 {
		b.Description = strings.Join(categories, ", ")
	}

	fillAddress(&b, p)
	return b
}

// fillAddress extracts structured address fields from the component list,
// falling back to splitting the formatted address when components are absent.
func fillAddress(b *domain.Business, p placeResult) {
	if len(p.AddressComponents) > 0 {
		for _, comp := range p.AddressComponents {
			switch {
			case hasType(comp.Types, "street_number"):
				if b.Address == "" {
					b.Address = comp.LongName
				} else {
					b.Address = comp.LongName + " " + b.Address
				}
			case hasType(comp.Types, "route"):
				if b.Address == "" {
					b.Address = comp.LongName
				} else {
					b.Address = b.Address + " " + comp.LongName
				}
			case hasType(comp.Types, "subpremise"):
				b.Address2 = comp.LongName
			case hasType(comp.Types, "locality"), hasType(comp.Types, "sublocality"):
				b.City = comp.LongName
			case hasType(comp.Types, "administrative_area_level_1"):
				b.State = comp.ShortName
			case hasType(comp.Types, "postal_code"):
				b.PostalCode = comp.LongName
			case hasType(comp.Types, "country"):
				b.Country = comp.LongName
			}
		}
		return
	}

	if p.FormattedAddress == "" {
		return
	}
	parts := strings.Split(p.FormattedAddress, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	if len(parts) >= 3 {
		b.Address = parts[0]
		b.City = parts[1]
		stateZip := strings.Fields(parts[2])
		if len(stateZip) >= 2 {
			b.State = stateZip[0]
			b.PostalCode = stateZip[1]
		}
		if len(parts) > 3 {
			b.Country = parts[3]
		}
	}
}

func hasType(types []string, want string) bool {
	for _, t := range types {
		if t == want {
			return true
		}
	}
	return false
}

// formatCategory turns a snake_case provider type into Title Case.
func formatCategory(category string) string {
	words := strings.Split(category, "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
