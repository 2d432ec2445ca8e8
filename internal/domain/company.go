package domain

import "strings"

// Company is one of the fixed tenants time can be booked against.
type Company string

const (
	CompanyMerchandising Company = "merchandising"
	CompanySalescrew     Company = "salescrew"
	CompanyInkognito     Company = "inkognito"
)

var companyNames = map[Company]string{
	CompanyMerchandising: "Merchandising",
	CompanySalescrew:     "Salescrew",
	CompanyInkognito:     "Inkognito",
}

// Companies returns all companies in display order.
func Companies() []Company {
	return []Company{CompanyMerchandising, CompanySalescrew, CompanyInkognito}
}

func (c Company) Valid() bool {
	_, ok := companyNames[c]
	return ok
}

func (c Company) DisplayName() string {
	if name, ok := companyNames[c]; ok {
		return name
	}
	return string(c)
}

// ParseCompany accepts the canonical key or the display name, case-insensitively.
func ParseCompany(s string) (Company, error) {
	c := Company(strings.ToLower(strings.TrimSpace(s)))
	if !c.Valid() {
		return "", invalidf("unknown company %q (expected merchandising, salescrew or inkognito)", s)
	}
	return c, nil
}
