package normalize

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"superstore-analytics/internal/models"
)

// ErrNoRows is returned when the parsed input holds no data rows at all.
var ErrNoRows = errors.New("file is empty or invalid format")

// Field is a canonical column name. Source files may spell it several ways.
type Field string

const (
	OrderID      Field = "order id"
	OrderDate    Field = "order date"
	ShipDate     Field = "ship date"
	ShipMode     Field = "ship mode"
	CustomerID   Field = "customer id"
	CustomerName Field = "customer name"
	Segment      Field = "segment"
	Country      Field = "country"
	City         Field = "city"
	State        Field = "state"
	PostalCode   Field = "postal code"
	Region       Field = "region"
	ProductID    Field = "product id"
	Category     Field = "category"
	SubCategory  Field = "sub-category"
	ProductName  Field = "product name"
	Sales        Field = "sales"
	Quantity     Field = "quantity"
	Discount     Field = "discount"
	Profit       Field = "profit"
	DaysToShip   Field = "days to ship"
	Rating       Field = "rating"
)

// RequiredFields lists every logical column in the order reported to users.
var RequiredFields = []Field{
	OrderID, OrderDate, ShipDate, ShipMode, CustomerID,
	CustomerName, Segment, Country, City, State, PostalCode,
	Region, ProductID, Category, SubCategory, ProductName,
	Sales, Quantity, Discount, Profit, DaysToShip, Rating,
}

// aliases are tried in order; the first non-empty match wins. Entries are
// stored already normalized.
var aliases = buildAliases(map[Field][]string{
	OrderID:      {"order id", "orderid", "order no", "order number"},
	OrderDate:    {"order date", "orderdate", "date"},
	ShipDate:     {"ship date", "shipdate", "shipping date"},
	ShipMode:     {"ship mode", "shipmode", "shipping mode"},
	CustomerID:   {"customer id", "customerid", "cust id"},
	CustomerName: {"customer name", "customername", "customer"},
	Segment:      {"segment", "customer segment"},
	Country:      {"country", "country region"},
	City:         {"city"},
	State:        {"state", "province", "state province"},
	PostalCode:   {"postal code", "postalcode", "zip code", "zipcode", "zip", "postcode"},
	Region:       {"region"},
	ProductID:    {"product id", "productid"},
	Category:     {"category", "product category"},
	SubCategory:  {"sub-category", "sub_category", "subcategory", "sub category"},
	ProductName:  {"product name", "productname", "product"},
	Sales:        {"sales", "sales amount", "revenue"},
	Quantity:     {"quantity", "qty"},
	Discount:     {"discount", "discount rate"},
	Profit:       {"profit"},
	DaysToShip:   {"days to ship", "daystoship", "days_to_ship", "shipping days"},
	Rating:       {"rating", "customer rating", "review rating"},
})

func buildAliases(raw map[Field][]string) map[Field][]string {
	out := make(map[Field][]string, len(raw))
	for field, names := range raw {
		seen := make(map[string]bool, len(names))
		for _, name := range names {
			key := NormalizeKey(name)
			if !seen[key] {
				seen[key] = true
				out[field] = append(out[field], key)
			}
		}
	}
	return out
}

var separatorRun = regexp.MustCompile(`[\s_\-]+`)

// NormalizeKey lower-cases and trims a column name and collapses any run of
// spaces, underscores and hyphens into a single space.
func NormalizeKey(key string) string {
	key = strings.TrimPrefix(key, "\ufeff")
	key = strings.ToLower(strings.TrimSpace(key))
	return strings.TrimSpace(separatorRun.ReplaceAllString(key, " "))
}

// Aliases returns the normalized spellings accepted for a field.
func Aliases(field Field) []string {
	return slices.Clone(aliases[field])
}

// rowIndex maps normalized keys to string values. When two raw keys collapse
// to the same normalized key, the first non-empty value in sorted raw-key
// order is kept so the result does not depend on map iteration.
type rowIndex map[string]string

func indexRow(row models.RawRow) rowIndex {
	keys := make([]string, 0, len(row))
	for k := range row {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	idx := make(rowIndex, len(keys))
	for _, k := range keys {
		nk := NormalizeKey(k)
		if idx[nk] != "" {
			continue
		}
		idx[nk] = stringValue(row[k])
	}
	return idx
}

func (idx rowIndex) get(field Field) string {
	for _, alias := range aliases[field] {
		if v := idx[alias]; v != "" {
			return v
		}
	}
	return ""
}

// Resolve returns the first non-empty value stored under any alias of field.
func Resolve(row models.RawRow, field Field) string {
	return indexRow(row).get(field)
}

func stringValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case fmt.Stringer:
		return strings.TrimSpace(val.String())
	default:
		return strings.TrimSpace(fmt.Sprint(val))
	}
}

// CheckColumns reports which required fields have no alias among headers.
// The check is advisory: normalization degrades missing fields to defaults.
func CheckColumns(headers []string) models.ColumnReport {
	present := make(map[string]bool, len(headers))
	for _, h := range headers {
		present[NormalizeKey(h)] = true
	}

	report := models.ColumnReport{Missing: []string{}, Errors: []string{}}
	for _, field := range RequiredFields {
		found := false
		for _, alias := range aliases[field] {
			if present[alias] {
				found = true
				break
			}
		}
		if !found {
			report.Missing = append(report.Missing, string(field))
		}
	}

	if len(report.Missing) > 0 {
		report.Errors = append(report.Errors,
			"Missing required columns: "+strings.Join(report.Missing, ", "))
	}
	report.Valid = len(report.Errors) == 0
	return report
}

// ValidateDataset checks the structural shape of parsed rows and runs the
// column check against the first row's keys.
func ValidateDataset(rows []models.RawRow) (models.ColumnReport, error) {
	if len(rows) == 0 {
		return models.ColumnReport{
			Valid:   false,
			Missing: []string{},
			Errors:  []string{"File is empty or invalid format"},
		}, ErrNoRows
	}

	headers := make([]string, 0, len(rows[0]))
	for k := range rows[0] {
		headers = append(headers, k)
	}
	return CheckColumns(headers), nil
}
