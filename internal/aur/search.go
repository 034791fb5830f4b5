package aur

import (
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ErrUnexpectedMarkup is returned when a page parses but lacks the expected structure
var ErrUnexpectedMarkup = errors.New("unexpected page markup")

// ParseSearchResults extracts packages from the results table of a search
// page, in page order. A page without a results table ("No packages
// matched your search criteria") yields an empty slice.
//
// Expected row layout: name link, version, votes, popularity, description.
func ParseSearchResults(html string) ([]Package, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	table := doc.Find("table.results")
	if table.Length() == 0 {
		return []Package{}, nil
	}

	var pkgs []Package
	var rowErr error
	table.Find("tbody tr").EachWithBreak(func(i int, row *goquery.Selection) bool {
		cells := row.Find("td")
		if cells.Length() < 2 {
			rowErr = fmt.Errorf("%w: search row %d has %d cells", ErrUnexpectedMarkup, i+1, cells.Length())
			return false
		}

		name := strings.TrimSpace(cells.Eq(0).Find("a").First().Text())
		if name == "" {
			name = strings.TrimSpace(cells.Eq(0).Text())
		}
		if name == "" {
			rowErr = fmt.Errorf("%w: search row %d has no package name", ErrUnexpectedMarkup, i+1)
			return false
		}

		pkg := Package{
			Name:    name,
			Version: strings.TrimSpace(cells.Eq(1).Text()),
		}
		if cells.Length() > 4 {
			pkg.Description = strings.Join(strings.Fields(cells.Eq(4).Text()), " ")
		}
		pkgs = append(pkgs, pkg)
		return true
	})
	if rowErr != nil {
		return nil, rowErr
	}
	if pkgs == nil {
		pkgs = []Package{}
	}

	return pkgs, nil
}
