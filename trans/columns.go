package trans

// Columns names the fixed columns of the store. Every other column is a language column.
type Columns struct {
	ID       string `toml:"id" yaml:"id"`
	Category string `toml:"category" yaml:"category"`
	Source   string `toml:"source" yaml:"source"`
	MaxWidth string `toml:"maxwidth" yaml:"maxwidth"`
	SizeUnit string `toml:"size_unit" yaml:"size_unit"`
	Active   string `toml:"active" yaml:"active"`
}

// DefaultColumns returns the column names used when none are configured.
func DefaultColumns() Columns {
	return Columns{
		ID:       "id",
		Category: "category",
		Source:   "source",
		MaxWidth: "maxwidth",
		SizeUnit: "size_unit",
		Active:   "active",
	}
}

// Base returns the fixed column names in the order a new store is laid out with.
func (c Columns) Base() []string {
	return []string{c.ID, c.Category, c.Source, c.MaxWidth, c.SizeUnit, c.Active}
}

// IsBase reports whether name is one of the fixed columns.
func (c Columns) IsBase(name string) bool {
	for _, b := range c.Base() {
		if b == name {
			return true
		}
	}
	return false
}

// LanguageColumns returns the columns of all that are not fixed columns, in their original order.
func (c Columns) LanguageColumns(all []string) []string {
	langs := make([]string, 0, len(all))
	for _, name := range all {
		if name == "" || c.IsBase(name) {
			continue
		}
		langs = append(langs, name)
	}
	return langs
}

// Row turns a record into a row of cell values laid out as columns.
func (c Columns) Row(r Record, columns []string) []string {
	row := make([]string, len(columns))
	for i, name := range columns {
		switch name {
		case c.ID:
			row[i] = r.ID
		case c.Category:
			row[i] = r.Category
		case c.Source:
			row[i] = r.Source
		case c.MaxWidth:
			row[i] = r.MaxWidth
		case c.SizeUnit:
			row[i] = r.SizeUnit
		case c.Active:
			row[i] = r.Active
		default:
			row[i] = r.Translation(name)
		}
	}
	return row
}

// Record builds a record from a row laid out as columns. Missing cells read as "".
func (c Columns) Record(columns, row []string) Record {
	r := Record{Translations: make(map[string]string)}
	for i, name := range columns {
		value := ""
		if i < len(row) {
			value = row[i]
		}
		switch name {
		case c.ID:
			r.ID = value
		case c.Category:
			r.Category = value
		case c.Source:
			r.Source = value
		case c.MaxWidth:
			r.MaxWidth = value
		case c.SizeUnit:
			r.SizeUnit = value
		case c.Active:
			r.Active = value
		case "":
		default:
			r.Translations[name] = value
		}
	}
	return r
}

// Missing returns the fixed columns absent from columns.
func (c Columns) Missing(columns []string) []string {
	have := make(map[string]bool, len(columns))
	for _, name := range columns {
		have[name] = true
	}
	var missing []string
	for _, b := range c.Base() {
		if !have[b] {
			missing = append(missing, b)
		}
	}
	return missing
}
