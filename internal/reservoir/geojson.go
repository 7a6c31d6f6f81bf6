package reservoir

import (
	"bytes"
	"encoding/json"
)

// CRS84 is the coordinate reference system every collection declares.
const CRS84 = "urn:ogc:def:crs:OGC:1.3:CRS84"

// Feature joins one site's metadata with its monthly summaries. Site is nil
// when readings exist for an ID the inventory does not know.
type Feature struct {
	ID     string
	Site   *Site
	Months MonthlySeries
}

type pointGeometry struct {
	Type        string     `json:"type"`
	Coordinates [2]float64 `json:"coordinates"` // [lon, lat]
}

// MarshalJSON renders the feature as a GeoJSON Feature. The identity fields
// and the month keys share one flat properties object; a feature without
// metadata has only "id" plus its months and a null geometry.
func (f Feature) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`{"type":"Feature","properties":{`)

	if err := writeMember(&buf, "id", f.ID, true); err != nil {
		return nil, err
	}
	if f.Site != nil {
		if err := writeMember(&buf, "Name", f.Site.Name, false); err != nil {
			return nil, err
		}
		if err := writeMember(&buf, "Description", f.Site.Name, false); err != nil {
			return nil, err
		}
	}
	for _, m := range f.Months {
		if err := writeMember(&buf, string(m.Month), m.Value, false); err != nil {
			return nil, err
		}
	}

	buf.WriteString(`},"geometry":`)
	if f.Site == nil {
		buf.WriteString("null")
	} else {
		geom, err := json.Marshal(pointGeometry{
			Type:        "Point",
			Coordinates: [2]float64{f.Site.Longitude, f.Site.Latitude},
		})
		if err != nil {
			return nil, err
		}
		buf.Write(geom)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func writeMember(buf *bytes.Buffer, key string, value any, first bool) error {
	if !first {
		buf.WriteByte(',')
	}
	k, err := json.Marshal(key)
	if err != nil {
		return err
	}
	v, err := json.Marshal(value)
	if err != nil {
		return err
	}
	buf.Write(k)
	buf.WriteByte(':')
	buf.Write(v)
	return nil
}

// FeatureCollection is the output document.
type FeatureCollection struct {
	Features []Feature
}

type crsName struct {
	Type       string `json:"type"`
	Properties struct {
		Name string `json:"name"`
	} `json:"properties"`
}

type collectionJSON struct {
	Type     string    `json:"type"`
	CRS      crsName   `json:"crs"`
	Features []Feature `json:"features"`
}

func (fc FeatureCollection) MarshalJSON() ([]byte, error) {
	out := collectionJSON{
		Type:     "FeatureCollection",
		Features: fc.Features,
	}
	out.CRS.Type = "name"
	out.CRS.Properties.Name = CRS84
	if out.Features == nil {
		out.Features = []Feature{}
	}
	return json.Marshal(out)
}

// Feature returns the feature for a site ID.
func (fc FeatureCollection) Feature(id string) (Feature, bool) {
	for _, f := range fc.Features {
		if f.ID == id {
			return f, true
		}
	}
	return Feature{}, false
}

// Assemble joins site metadata and monthly summaries into one feature per
// site ID found in either input. Inventory sites come first in inventory
// order, followed by sites that only appear in the readings.
func Assemble(sites *SiteTable, summaries *SummaryTable) FeatureCollection {
	features := make([]Feature, 0, sites.Len())
	seen := make(map[string]bool, sites.Len())

	for _, id := range sites.IDs() {
		site, _ := sites.Get(id)
		months, _ := summaries.Get(id)
		features = append(features, Feature{ID: id, Site: &site, Months: months})
		seen[id] = true
	}
	for _, id := range summaries.IDs() {
		if seen[id] {
			continue
		}
		months, _ := summaries.Get(id)
		features = append(features, Feature{ID: id, Months: months})
		seen[id] = true
	}
	return FeatureCollection{Features: features}
}
