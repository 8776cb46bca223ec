package services

import (
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/dimas0311/home-price-predictor/models"
	"github.com/dimas0311/home-price-predictor/utils"
)

// InsightService derives search-control options and per-city market
// summaries from the display view.
type InsightService struct {
	collator *collate.Collator
	titler   cases.Caser
	logger   *utils.Logger
}

// CityMarket joins a city's listing count with its state aggregate, when
// one exists.
type CityMarket struct {
	City         string `json:"city"`
	State        string `json:"state,omitempty"`
	Description  string `json:"description,omitempty"`
	AveragePrice string `json:"average_price,omitempty"`
	SqftPrice    string `json:"sqft_price,omitempty"`
	ListingCount int    `json:"listing_count"`
}

// NewInsightService creates an InsightService with the given logger.
func NewInsightService(logger *utils.Logger) *InsightService {
	return &InsightService{
		collator: collate.New(language.AmericanEnglish),
		titler:   cases.Title(language.AmericanEnglish),
		logger:   logger.WithPrefix("insights"),
	}
}

// FilterOptions computes the distinct values the list UI's search controls
// offer: cities (digit-free, title-cased, locale-sorted), beds and baths
// options, and the price bounds of the current display view.
func (s *InsightService) FilterOptions(listings []*models.Listing) *models.FilterOptions {
	opts := &models.FilterOptions{}

	cities := make(map[string]struct{})
	beds := make(map[string]struct{})
	baths := make(map[string]struct{})

	for _, l := range listings {
		if city := strings.TrimSpace(l.City); city != "" && !containsDigit(city) {
			cities[s.titler.String(city)] = struct{}{}
		}
		if l.Beds != "" {
			beds[l.Beds] = struct{}{}
		}
		if l.Baths != "" {
			baths[l.Baths] = struct{}{}
		}
		if l.Price > 0 {
			if opts.MinPrice == 0 || l.Price < opts.MinPrice {
				opts.MinPrice = l.Price
			}
			if l.Price > opts.MaxPrice {
				opts.MaxPrice = l.Price
			}
		}
	}

	opts.Cities = keys(cities)
	s.collator.SortStrings(opts.Cities)

	opts.Beds = keys(beds)
	sortCounts(opts.Beds)
	opts.Baths = keys(baths)
	sortCounts(opts.Baths)

	return opts
}

// CityMarkets returns one entry per city present in the listings, joined
// with the matching state aggregate where available, ordered by listing
// count descending.
func (s *InsightService) CityMarkets(listings []*models.Listing, aggregates []models.StateAggregate) []CityMarket {
	byCity := make(map[string]models.StateAggregate, len(aggregates))
	for _, agg := range aggregates {
		byCity[strings.ToLower(agg.City)] = agg
	}

	counts := make(map[string]int)
	for _, l := range listings {
		if city := strings.TrimSpace(l.City); city != "" {
			counts[city]++
		}
	}

	markets := make([]CityMarket, 0, len(counts))
	for city, count := range counts {
		market := CityMarket{City: city, ListingCount: count}
		if agg, ok := byCity[strings.ToLower(city)]; ok {
			market.State = agg.State
			market.Description = agg.Description
			market.AveragePrice = agg.AveragePrice
			market.SqftPrice = agg.SqftPrice
		}
		markets = append(markets, market)
	}

	sort.Slice(markets, func(i, j int) bool {
		if markets[i].ListingCount != markets[j].ListingCount {
			return markets[i].ListingCount > markets[j].ListingCount
		}
		return s.collator.CompareString(markets[i].City, markets[j].City) < 0
	})

	return markets
}

// sortCounts orders values like "3 beds" numerically, pushing unknown
// placeholders ("—", "") to the end.
func sortCounts(values []string) {
	sort.Slice(values, func(i, j int) bool {
		a, aOK := leadingNumber(values[i])
		b, bOK := leadingNumber(values[j])
		if aOK != bOK {
			return aOK
		}
		if !aOK {
			return values[i] < values[j]
		}
		return a < b
	})
}

func leadingNumber(s string) (float64, bool) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return 0, false
	}
	n, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

func containsDigit(s string) bool {
	return strings.ContainsAny(s, "0123456789")
}

func keys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	return out
}
