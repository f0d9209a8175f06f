// Package geo maps ISO 3166 country and subdivision codes to the display
// names the payment processor stores on customer addresses, and back.
package geo

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

//go:embed countries.json
var countriesJSON []byte

type Country struct {
	Code   string  `json:"code"`
	Name   string  `json:"name"`
	States []State `json:"states,omitempty"`
}

type State struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

type index struct {
	countries []Country
	byCode    map[string]*Country
	byName    map[string]*Country

	stateByCode map[string]map[string]State // country code -> state code
	stateByName map[string]map[string]State // country code -> folded name
}

var idx = mustLoad(countriesJSON)

func mustLoad(data []byte) *index {
	ix, err := load(data)
	if err != nil {
		panic(err)
	}
	return ix
}

func load(data []byte) (*index, error) {
	var countries []Country
	if err := json.Unmarshal(data, &countries); err != nil {
		return nil, fmt.Errorf("geo: decode countries: %w", err)
	}

	ix := &index{
		countries:   countries,
		byCode:      make(map[string]*Country, len(countries)),
		byName:      make(map[string]*Country, len(countries)),
		stateByCode: make(map[string]map[string]State),
		stateByName: make(map[string]map[string]State),
	}
	for i := range countries {
		c := &countries[i]
		code := strings.ToUpper(c.Code)
		if _, dup := ix.byCode[code]; dup {
			return nil, fmt.Errorf("geo: duplicate country code %q", c.Code)
		}
		if _, dup := ix.byName[fold(c.Name)]; dup {
			return nil, fmt.Errorf("geo: duplicate country name %q", c.Name)
		}
		ix.byCode[code] = c
		ix.byName[fold(c.Name)] = c

		if len(c.States) == 0 {
			continue
		}
		codes := make(map[string]State, len(c.States))
		names := make(map[string]State, len(c.States))
		for _, s := range c.States {
			if _, dup := codes[strings.ToUpper(s.Code)]; dup {
				return nil, fmt.Errorf("geo: duplicate state code %s-%s", c.Code, s.Code)
			}
			if _, dup := names[fold(s.Name)]; dup {
				return nil, fmt.Errorf("geo: duplicate state name %q in %s", s.Name, c.Code)
			}
			codes[strings.ToUpper(s.Code)] = s
			names[fold(s.Name)] = s
		}
		ix.stateByCode[code] = codes
		ix.stateByName[code] = names
	}
	return ix, nil
}

// fold normalises a display name for comparison.
func fold(s string) string {
	return cases.Fold().String(norm.NFC.String(strings.TrimSpace(s)))
}

func upper(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// CountryCode returns the ISO 3166-1 alpha-2 code for a country name.
func CountryCode(name string) (string, bool) {
	c, ok := idx.byName[fold(name)]
	if !ok {
		return "", false
	}
	return c.Code, true
}

// CountryName returns the display name for an ISO 3166-1 alpha-2 code.
func CountryName(code string) (string, bool) {
	c, ok := idx.byCode[upper(code)]
	if !ok {
		return "", false
	}
	return c.Name, true
}

// StateCode returns the subdivision code (without the country prefix) for a
// state name within the given country.
func StateCode(countryCode, stateName string) (string, bool) {
	s, ok := idx.stateByName[upper(countryCode)][fold(stateName)]
	if !ok {
		return "", false
	}
	return s.Code, true
}

// StateName returns the display name of a subdivision code within a country.
func StateName(countryCode, stateCode string) (string, bool) {
	s, ok := idx.stateByCode[upper(countryCode)][upper(stateCode)]
	if !ok {
		return "", false
	}
	return s.Name, true
}

// Countries returns every known country sorted by code.
func Countries() []Country {
	out := make([]Country, len(idx.countries))
	copy(out, idx.countries)
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

// HasStates reports whether subdivision codes are known for the country.
func HasStates(countryCode string) bool {
	return len(idx.stateByCode[upper(countryCode)]) > 0
}
