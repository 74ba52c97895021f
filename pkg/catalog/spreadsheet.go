package catalog

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/matst80/slask-storefront/pkg/types"
	"github.com/xuri/excelize/v2"
)

var ErrMissingHeader = errors.New("sheet has no header row")

// RowError points at the spreadsheet line a value could not be read from.
type RowError struct {
	Sheet string
	Line  int
	Err   error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("%s line %d: %v", e.Sheet, e.Line, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}

type columns map[string]int

func (c columns) get(row []string, name string) string {
	idx, ok := c[name]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

type sheetRows struct {
	name   string
	header int
	cols   columns
	rows   [][]string
}

// findHeader returns the first row holding every required column, lookup is case insensitive.
func findHeader(name string, rows [][]string, required ...string) (*sheetRows, error) {
	for r, row := range rows {
		cols := columns{}
		for i, cell := range row {
			cols[strings.ToLower(strings.TrimSpace(cell))] = i
		}
		found := true
		for _, req := range required {
			if _, ok := cols[req]; !ok {
				found = false
				break
			}
		}
		if found {
			return &sheetRows{name: name, header: r, cols: cols, rows: rows}, nil
		}
	}
	return nil, fmt.Errorf("%s: %w (need %s)", name, ErrMissingHeader, strings.Join(required, ", "))
}

func (s *sheetRows) each(fn func(line int, row []string) error) error {
	var errs []error
	for i := s.header + 1; i < len(s.rows); i++ {
		row := s.rows[i]
		if strings.TrimSpace(strings.Join(row, "")) == "" {
			continue
		}
		if err := fn(i+1, row); err != nil {
			errs = append(errs, &RowError{Sheet: s.name, Line: i + 1, Err: err})
		}
	}
	return errors.Join(errs...)
}

func sheetByName(f *excelize.File, name string) (string, bool) {
	for _, sheet := range f.GetSheetList() {
		if strings.EqualFold(strings.TrimSpace(sheet), name) {
			return sheet, true
		}
	}
	return "", false
}

func parseInt(s string) (int64, error) {
	if s == "" {
		return 0, nil
	}
	s = strings.NewReplacer(".", "", ",", "", " ", "").Replace(s)
	return strconv.ParseInt(s, 10, 64)
}

func parseFloat(s string) (float64, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
}

var ErrParentLoop = errors.New("category is its own ancestor")

// breakParentLoops clears the parent of one category on every loop and reports it.
func breakParentLoops(sheet string, cats []types.Category, lines map[string]int) []error {
	byId := make(map[string]*types.Category, len(cats))
	for i := range cats {
		byId[cats[i].Id] = &cats[i]
	}
	parentOf := func(id string) (string, bool) {
		cat, ok := byId[id]
		if !ok || cat.ParentId == "" {
			return "", false
		}
		return cat.ParentId, true
	}
	var errs []error
	for i := range cats {
		cat := &cats[i]
		if byId[cat.Id] != cat || !ParentLoops(cat.Id, parentOf) {
			continue
		}
		errs = append(errs, &RowError{
			Sheet: sheet,
			Line:  lines[cat.Id],
			Err:   fmt.Errorf("%w: %s (parent %s)", ErrParentLoop, cat.Id, cat.ParentId),
		})
		cat.ParentId = ""
	}
	return errs
}

// ReadSpreadsheet reads a catalog from a workbook with the sheets categories, publishers
// and books. Rows that cannot be read are skipped and reported together in the error,
// the catalog of the readable rows is returned with it.
func ReadSpreadsheet(r io.Reader) (*types.Catalog, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	c := &types.Catalog{
		Categories: []types.Category{},
		Publishers: []types.Publisher{},
		Books:      []types.Book{},
	}
	var errs []error
	categorySheet, categoryLines := "categories", map[string]int{}
	load := func(name string, required []string, fn func(s *sheetRows) error) {
		sheet, ok := sheetByName(f, name)
		if !ok {
			return
		}
		rows, err := f.GetRows(sheet)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", sheet, err))
			return
		}
		s, err := findHeader(sheet, rows, required...)
		if err != nil {
			errs = append(errs, err)
			return
		}
		if err := fn(s); err != nil {
			errs = append(errs, err)
		}
	}

	load("categories", []string{"id", "name"}, func(s *sheetRows) error {
		categorySheet = s.name
		return s.each(func(line int, row []string) error {
			cat := types.Category{
				Id:       s.cols.get(row, "id"),
				Slug:     s.cols.get(row, "slug"),
				Name:     s.cols.get(row, "name"),
				ParentId: s.cols.get(row, "parent"),
			}
			if cat.Id == "" {
				return errors.New("category without id")
			}
			categoryLines[cat.Id] = line
			c.Categories = append(c.Categories, cat)
			return nil
		})
	})
	errs = append(errs, breakParentLoops(categorySheet, c.Categories, categoryLines)...)

	load("publishers", []string{"id", "name"}, func(s *sheetRows) error {
		return s.each(func(line int, row []string) error {
			pub := types.Publisher{Id: s.cols.get(row, "id"), Name: s.cols.get(row, "name")}
			if pub.Id == "" {
				return errors.New("publisher without id")
			}
			c.Publishers = append(c.Publishers, pub)
			return nil
		})
	})

	load("books", []string{"id", "title", "price"}, func(s *sheetRows) error {
		return s.each(func(line int, row []string) error {
			id, err := types.ParseItemId(s.cols.get(row, "id"))
			if err != nil || id == 0 {
				return fmt.Errorf("invalid book id %q", s.cols.get(row, "id"))
			}
			price, err := parseInt(s.cols.get(row, "price"))
			if err != nil || price < 0 {
				return fmt.Errorf("invalid price %q", s.cols.get(row, "price"))
			}
			amount, err := parseInt(s.cols.get(row, "amount"))
			if err != nil {
				return fmt.Errorf("invalid amount %q", s.cols.get(row, "amount"))
			}
			discount, err := parseFloat(s.cols.get(row, "discount"))
			if err != nil || discount < 0 || discount > 1 {
				return fmt.Errorf("invalid discount %q", s.cols.get(row, "discount"))
			}
			rating, err := parseFloat(s.cols.get(row, "rating"))
			if err != nil {
				return fmt.Errorf("invalid rating %q", s.cols.get(row, "rating"))
			}
			c.Books = append(c.Books, types.Book{
				Id:          id,
				Title:       s.cols.get(row, "title"),
				Slug:        s.cols.get(row, "slug"),
				Image:       s.cols.get(row, "image"),
				Price:       price,
				Discount:    discount,
				Amount:      int(amount),
				Type:        strings.ToUpper(s.cols.get(row, "type")),
				Rating:      rating,
				PublisherId: s.cols.get(row, "publisher"),
				CategoryId:  s.cols.get(row, "category"),
				ShopId:      s.cols.get(row, "shop"),
			})
			return nil
		})
	})

	return c, errors.Join(errs...)
}
