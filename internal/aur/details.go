package aur

import (
	"fmt"
	"strings"

	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"
)

// Details is the metadata shown on a package page.
type Details struct {
	Name        string
	Version     string
	Description string
	UpstreamURL string
	CloneURL    string
	Maintainer  string
}

// Package returns the identity record for d.
func (d *Details) Package() Package {
	return Package{Name: d.Name, Version: d.Version, Description: d.Description}
}

// ParseDetails reads the package-details heading and the pkginfo table of a
// package page. Version errors from ExtractVersion are returned unchanged so
// callers can tell a missing package from changed markup.
func ParseDetails(page string) (*Details, error) {
	v, err := ExtractVersion(page)
	if err != nil {
		return nil, err
	}

	doc, err := htmlquery.Parse(strings.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	d := &Details{
		Name:    extractName(page),
		Version: v,
	}

	rows, err := htmlquery.QueryAll(doc, `//table[@id="pkginfo"]//tr`)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnexpectedMarkup, err)
	}
	for _, row := range rows {
		th := htmlquery.FindOne(row, "./th")
		td := htmlquery.FindOne(row, "./td")
		if th == nil || td == nil {
			continue
		}

		switch strings.TrimSuffix(collapse(htmlquery.InnerText(th)), ":") {
		case "Git Clone URL":
			d.CloneURL = linkOrText(td)
		case "Description":
			d.Description = collapse(htmlquery.InnerText(td))
		case "Upstream URL":
			d.UpstreamURL = linkOrText(td)
		case "Maintainer":
			d.Maintainer = collapse(htmlquery.InnerText(td))
		}
	}

	return d, nil
}

// linkOrText returns the first link's href inside n, or n's text.
func linkOrText(n *html.Node) string {
	if a := htmlquery.FindOne(n, ".//a[@href]"); a != nil {
		if href := strings.TrimSpace(htmlquery.SelectAttr(a, "href")); href != "" {
			return href
		}
	}
	return collapse(htmlquery.InnerText(n))
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
