package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Theme 商品主题
type Theme string

const (
	ThemeDrink        Theme = "drink"
	ThemeFood         Theme = "food"
	ThemePersonalCare Theme = "personal_care"
	ThemeHealthCare   Theme = "health_care"
	ThemeCleaning     Theme = "cleaning"
)

// Themes 全部合法主题
var Themes = []Theme{ThemeDrink, ThemeFood, ThemePersonalCare, ThemeHealthCare, ThemeCleaning}

// Valid 是否为合法主题
func (t Theme) Valid() bool {
	for _, v := range Themes {
		if t == v {
			return true
		}
	}
	return false
}

// ParseTheme 解析主题字符串
func ParseTheme(s string) (Theme, error) {
	t := Theme(strings.TrimSpace(s))
	if !t.Valid() {
		return "", fmt.Errorf("%w: unknown theme %q", ErrInvalidProduct, s)
	}
	return t, nil
}

// Product 商品
type Product struct {
	ID       primitive.ObjectID
	Name     string
	Theme    Theme
	Price    decimal.Decimal
	Quantity int
}

// Validate 校验商品字段：名称非空、主题合法、价格与库存非负
func (p *Product) Validate() error {
	switch {
	case strings.TrimSpace(p.Name) == "":
		return fmt.Errorf("%w: name is required", ErrInvalidProduct)
	case !p.Theme.Valid():
		return fmt.Errorf("%w: unknown theme %q", ErrInvalidProduct, p.Theme)
	case p.Price.IsNegative():
		return fmt.Errorf("%w: price must not be negative", ErrInvalidProduct)
	case p.Quantity < 0:
		return fmt.Errorf("%w: quantity must not be negative", ErrInvalidProduct)
	}
	return nil
}
