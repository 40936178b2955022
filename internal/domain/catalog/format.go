package catalog

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// 価格を桁区切り＋通貨記号で表示する。例: "100.000 ₫"
type PriceFormatter struct {
	printer *message.Printer
	suffix  string
}

func NewPriceFormatter(locale string, suffix string) *PriceFormatter {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.Vietnamese
	}
	return &PriceFormatter{
		printer: message.NewPrinter(tag),
		suffix:  suffix,
	}
}

func (f *PriceFormatter) number(d decimal.Decimal) string {
	return f.printer.Sprintf("%d", d.Round(0).IntPart())
}

// 単一の価格。
func (f *PriceFormatter) Format(d decimal.Decimal) string {
	return f.number(d) + " " + f.suffix
}

// 表示価格。variantの価格が同じなら1つ、違えば "min - max"。
func (f *PriceFormatter) FormatAggregate(agg Aggregate) string {
	if agg.MinPrice == nil || agg.MaxPrice == nil || agg.MinPrice.Equal(*agg.MaxPrice) {
		return f.Format(agg.Price)
	}
	return f.number(*agg.MinPrice) + " - " + f.number(*agg.MaxPrice) + " " + f.suffix
}

// 元の価格。なければnil。
func (f *PriceFormatter) FormatOriginal(agg Aggregate) *string {
	if agg.OriginalPrice == nil {
		return nil
	}
	s := f.Format(*agg.OriginalPrice)
	return &s
}
