package faker

import (
	"crypto/sha256"
	_ "embed"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"text/template"
)

type fakerData struct {
	FirstNames      []string `json:"firstNames"`
	LastNames       []string `json:"lastNames"`
	StreetNames     []string `json:"streetNames"`
	Cities          []string `json:"cityNames"`
	Companies       []string `json:"companies"`
	CompanySuffixes []string `json:"companySuffixes"`
}

//go:embed en.json
var enData []byte

//go:embed fi.json
var fiData []byte

func init() {
	loadData("en", enData)
	loadData("fi", fiData)
}

var dataMap = make(map[string]fakerData)

func loadData(locale string, data []byte) {
	var fd fakerData
	err := json.Unmarshal(data, &fd)
	if err != nil {
		panic(err)
	}
	dataMap[locale] = fd
}

// Faker replaces values with fake ones picked deterministically from the
// input, so equal inputs always give equal outputs.
type Faker struct {
	Locale string
}

func New(locale string) (*Faker, error) {
	if locale == "" {
		locale = "en"
	}
	if _, ok := dataMap[locale]; !ok {
		return nil, fmt.Errorf("unsupported faker locale '%s'", locale)
	}
	return &Faker{Locale: locale}, nil
}

func (f *Faker) FuncMap() template.FuncMap {
	return template.FuncMap{
		"fakeFirstName": func(input string) string {
			return TransformFirstName(input, f.Locale)
		},
		"fakeLastName": func(input string) string {
			return TransformLastName(input, f.Locale)
		},
		"fakeStreet": func(input string) string {
			return TransformStreet(input, f.Locale)
		},
		"fakeCity": func(input string) string {
			return TransformCity(input, f.Locale)
		},
		"fakeCompanyName": func(input string) string {
			return TransformCompanyName(input, f.Locale)
		},
		"fakeFullName": func(input string) string {
			return TransformFullName(input, f.Locale)
		},
	}
}

func TransformFirstName(input string, locale string) string {
	if input == "" {
		return ""
	}
	return pick(initRng(input), dataMap[locale].FirstNames)
}

func TransformLastName(input string, locale string) string {
	if input == "" {
		return ""
	}
	return pick(initRng(input), dataMap[locale].LastNames)
}

func TransformStreet(input string, locale string) string {
	if input == "" {
		return ""
	}
	rng := initRng(input)
	streetNumber := rng.Intn(1000)
	return pick(rng, dataMap[locale].StreetNames) + " " + strconv.Itoa(streetNumber)
}

func TransformCity(input string, locale string) string {
	if input == "" {
		return ""
	}
	return pick(initRng(input), dataMap[locale].Cities)
}

func TransformFullName(input string, locale string) string {
	if input == "" {
		return ""
	}
	firstName, lastName, _ := strings.Cut(input, " ")
	nameTokens := []string{
		TransformFirstName(firstName, locale),
		TransformLastName(lastName, locale),
	}
	return strings.TrimSpace(strings.Join(nameTokens, " "))
}

func TransformCompanyName(input string, locale string) string {
	if input == "" {
		return ""
	}
	rng := initRng(input)
	companyNameParts := []string{pick(rng, dataMap[locale].Companies)}
	// add second part?
	if rng.Float32() < 0.5 {
		companyNameParts = append(companyNameParts, pick(rng, dataMap[locale].Companies))
	}
	// add suffix?
	if rng.Float32() < 0.7 {
		companyNameParts = append(companyNameParts, pick(rng, dataMap[locale].CompanySuffixes))
	}
	return strings.Join(companyNameParts, " ")
}

func pick(rng *rand.Rand, values []string) string {
	if len(values) == 0 {
		return ""
	}
	return values[rng.Intn(len(values))]
}

func initRng(input string) *rand.Rand {
	hash := sha256.Sum256([]byte(input))
	seed := binary.BigEndian.Uint64(hash[:8])
	return rand.New(rand.NewSource(int64(seed)))
}
