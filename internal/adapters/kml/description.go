package kml

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// DescriptionField looks up the first of fields in the HTML attribute table that GIS
// exports (ArcGIS, QGIS) put into a placemark description:
//
//	<tr><td>FULLNAME</td><td>Cement Hill Road</td></tr>
//
// Header cells may be <th> or <td>; empty values are skipped.
func DescriptionField(description string, fields []string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(description))
	if err != nil {
		return ""
	}

	values := make(map[string]string)
	doc.Find("tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("th, td")
		if cells.Length() < 2 {
			return
		}
		key := normSpace(cells.Eq(0).Text())
		if _, seen := values[key]; !seen {
			values[key] = normSpace(cells.Eq(1).Text())
		}
	})

	for _, f := range fields {
		if v := values[f]; v != "" {
			return v
		}
	}
	return ""
}

func normSpace(s string) string { return strings.Join(strings.Fields(s), " ") }
