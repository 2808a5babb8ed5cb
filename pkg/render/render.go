// Package render writes extracted catalogues in the supported output formats.
package render

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/jedib0t/go-pretty/v6/table"
	"gopkg.in/yaml.v3"

	"github.com/Sumatoshi-tech/localekeys/pkg/locale"
)

// Output formats.
const (
	FormatJSON  = "json"
	FormatYAML  = "yaml"
	FormatTable = "table"
	FormatHTML  = "html"
)

// Formats lists every format accepted by Write.
var Formats = []string{FormatJSON, FormatYAML, FormatTable, FormatHTML}

// ErrUnknownFormat is returned by Write for a format outside Formats.
var ErrUnknownFormat = errors.New("unknown output format")

const (
	chartHeight = "500px"
	xAxisRotate = 30
)

// Write renders locales to w in the given format.
func Write(w io.Writer, format string, locales []locale.Locale) error {
	if locales == nil {
		locales = []locale.Locale{}
	}

	switch format {
	case FormatJSON:
		return writeJSON(w, locales)
	case FormatYAML:
		return writeYAML(w, locales)
	case FormatTable:
		return writeTable(w, locales)
	case FormatHTML:
		return writeHTML(w, locales)
	default:
		return fmt.Errorf("%w: %q (want one of %v)", ErrUnknownFormat, format, Formats)
	}
}

// Summary returns a one-line description of the catalogue size.
func Summary(locales []locale.Locale) string {
	files := len(locales)
	keys := locale.CountKeys(locales)

	return fmt.Sprintf("%s %s, %s %s",
		humanize.Comma(int64(files)), plural(files, "locale file", "locale files"),
		humanize.Comma(int64(keys)), plural(keys, "key", "keys"))
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}

	return many
}

func writeJSON(w io.Writer, locales []locale.Locale) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	err := enc.Encode(locales)
	if err != nil {
		return fmt.Errorf("encode json: %w", err)
	}

	return nil
}

func writeYAML(w io.Writer, locales []locale.Locale) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)

	err := enc.Encode(locales)
	if err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}

	err = enc.Close()
	if err != nil {
		return fmt.Errorf("flush yaml: %w", err)
	}

	return nil
}

func writeTable(w io.Writer, locales []locale.Locale) error {
	tbl := table.NewWriter()
	tbl.SetOutputMirror(w)
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Options.SeparateRows = false
	tbl.Style().Options.DrawBorder = false

	tbl.AppendHeader(table.Row{"Lang", "Key", "Location", "Source"})

	for _, l := range locales {
		for _, k := range l.Keys {
			source := ""
			if k.Spread() {
				source = k.SourcePath
			}

			tbl.AppendRow(table.Row{l.Lang, k.Key, position(l.FilePath, k.Location), source})
		}
	}

	tbl.AppendFooter(table.Row{"", "", "", Summary(locales)})
	tbl.Render()

	return nil
}

func position(path string, loc locale.Location) string {
	return path + ":" + strconv.Itoa(loc.StartLine) + ":" + strconv.Itoa(loc.StartColumn+1)
}

func writeHTML(w io.Writer, locales []locale.Locale) error {
	labels, counts := keysPerLang(locales)

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: "Locale keys",
			Width:     "100%",
			Height:    chartHeight,
		}),
		charts.WithTitleOpts(opts.Title{Title: "Keys per language", Subtitle: Summary(locales)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithXAxisOpts(opts.XAxis{AxisLabel: &opts.AxisLabel{Rotate: xAxisRotate, Interval: "0"}}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Keys"}),
	)
	bar.SetXAxis(labels)

	data := make([]opts.BarData, len(counts))
	for i, c := range counts {
		data[i] = opts.BarData{Value: c}
	}

	bar.AddSeries("Keys", data)

	err := bar.Render(w)
	if err != nil {
		return fmt.Errorf("render html: %w", err)
	}

	return nil
}

// keysPerLang sums key counts by language, sorted by language tag.
func keysPerLang(locales []locale.Locale) (labels []string, counts []int) {
	totals := make(map[string]int)

	for _, l := range locales {
		totals[l.Lang] += len(l.Keys)
	}

	labels = make([]string, 0, len(totals))
	for lang := range totals {
		labels = append(labels, lang)
	}

	slices.Sort(labels)

	counts = make([]int, len(labels))
	for i, lang := range labels {
		counts[i] = totals[lang]
	}

	return labels, counts
}
