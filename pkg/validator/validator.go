package validator

import (
	"reflect"
	"strings"
	"sync"

	"github.com/haierkeys/pd-clipper-service/internal/domain"

	"github.com/gin-gonic/gin/binding"
	val "github.com/go-playground/validator/v10"
)

// CustomValidator gin binding.StructValidator 的自定义实现
// 惰性初始化底层 validator 引擎，统一使用 json tag 作为字段名
type CustomValidator struct {
	once     sync.Once
	validate *val.Validate
}

// NewCustomValidator 创建自定义验证器
func NewCustomValidator() *CustomValidator {
	return &CustomValidator{}
}

// ValidateStruct 验证结构体（含指针解引用）
func (v *CustomValidator) ValidateStruct(obj any) error {
	value := reflect.ValueOf(obj)
	if value.Kind() == reflect.Ptr {
		value = value.Elem()
	}
	if value.Kind() != reflect.Struct {
		return nil
	}
	v.lazyInit()
	return v.validate.Struct(obj)
}

// Engine 返回底层验证引擎
func (v *CustomValidator) Engine() any {
	v.lazyInit()
	return v.validate
}

func (v *CustomValidator) lazyInit() {
	v.once.Do(func() {
		v.validate = val.New()
		v.validate.SetTagName("binding")
		v.validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
}

// RegisterCustom 注册项目级自定义校验规则
func RegisterCustom() {
	validate, ok := binding.Validator.Engine().(*val.Validate)
	if !ok {
		return
	}

	// sourcename 校验档案库来源名称
	validate.RegisterValidation("sourcename", func(fl val.FieldLevel) bool {
		_, err := domain.ParseSource(fl.Field().String())
		return err == nil
	})
}
