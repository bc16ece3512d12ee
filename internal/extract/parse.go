package extract

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"

	"github.com/sells-group/linkedin-cli/internal/model"
)

// companyIDPatterns match the numeric company ID in page source, tried in
// order. LinkedIn embeds it in several shapes depending on page variant.
var companyIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`"entityUrn":"urn:li:fsd_company:(\d+)"`),
	regexp.MustCompile(`"companyId":(\d+)`),
	regexp.MustCompile(`"companyUrn":"urn:li:company:(\d+)"`),
	regexp.MustCompile(`"organizationId":(\d+)`),
}

// aboutLabels maps the dt labels on the about page to profile fields.
var aboutLabels = map[string]func(p *model.CompanyProfile, v string){
	"website":      func(p *model.CompanyProfile, v string) { p.Website = v },
	"industry":     func(p *model.CompanyProfile, v string) { p.Industry = v },
	"company size": func(p *model.CompanyProfile, v string) { p.CompanySize = v },
	"headquarters": func(p *model.CompanyProfile, v string) { p.Headquarters = v },
	"founded":      func(p *model.CompanyProfile, v string) { p.Founded = v },
	"type":         func(p *model.CompanyProfile, v string) { p.CompanyType = v },
	"specialties": func(p *model.CompanyProfile, v string) {
		for _, s := range strings.Split(v, ",") {
			if s = strings.TrimSpace(s); s != "" {
				p.Specialties = append(p.Specialties, s)
			}
		}
	},
}

// ParseProfile extracts the company fields from rendered page HTML. A page
// that yields neither a name nor a company ID is treated as a failed
// extraction (login wall, 404 page, or markup change).
func ParseProfile(html string) (*model.CompanyProfile, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, eris.Wrap(err, "extract: parse html")
	}

	profile := &model.CompanyProfile{
		LinkedInCompanyID: companyID(html),
	}

	profile.Name = cleanText(doc.Find("h1").First().Text())

	// The about section leads with the description paragraph.
	doc.Find("section p").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if text := cleanText(sel.Text()); len(text) > 40 {
			profile.AboutUs = text
			return false
		}
		return true
	})

	// Definition lists hold the labeled fields.
	doc.Find("dl").Each(func(_ int, dl *goquery.Selection) {
		dts := dl.Find("dt")
		dds := dl.Find("dd")
		dts.Each(func(i int, dt *goquery.Selection) {
			if i >= dds.Length() {
				return
			}
			label := strings.ToLower(cleanText(dt.Text()))
			value := cleanText(dds.Eq(i).Text())
			if set, ok := aboutLabels[label]; ok && value != "" {
				set(profile, value)
			}
		})
	})

	if profile.Name == "" && profile.LinkedInCompanyID == "" {
		return nil, eris.New("extract: no company data in page")
	}
	return profile, nil
}

func companyID(html string) string {
	for _, pattern := range companyIDPatterns {
		if m := pattern.FindStringSubmatch(html); m != nil {
			return m[1]
		}
	}
	return ""
}

func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
