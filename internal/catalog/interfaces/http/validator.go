package http

import (
	"fmt"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/wyfcoding/ecommerce/internal/catalog/domain"
)

var registerOnce sync.Once

// RegisterValidators 向 gin 的校验引擎注册 product_theme 规则，可重复调用
func RegisterValidators() error {
	var err error
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			err = fmt.Errorf("unexpected binding engine %T", binding.Validator.Engine())
			return
		}
		err = v.RegisterValidation("product_theme", func(fl validator.FieldLevel) bool {
			return domain.Theme(fl.Field().String()).Valid()
		})
	})
	return err
}
