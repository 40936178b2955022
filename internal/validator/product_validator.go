package validator

import (
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	repo "storefront/internal/repository"
	"storefront/internal/usecase"
)

const (
	maxNameLen = 255
	maxSKULen  = 100
)

var allowedImageExt = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

// どのフィールドが不正か。
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	return e.Field + ": " + e.Reason
}

func invalid(field, reason string) error {
	return &FieldError{Field: field, Reason: reason}
}

type productValidator struct {
	maxUploadSize int64
}

// usecaseにはinterfaceで渡す
func NewProductValidator(maxUploadSize int64) usecase.ProductValidator {
	return &productValidator{maxUploadSize: maxUploadSize}
}

func (v *productValidator) ValidateCreate(in usecase.ProductInput) error {
	if err := v.validateProduct(in); err != nil {
		return err
	}

	if len(in.Variants) == 0 {
		return invalid("variants", "at least one variant is required")
	}
	if len(in.DeleteImageIDs) > 0 {
		return invalid("delete_image_ids", "not allowed on create")
	}
	for i, vin := range in.Variants {
		field := fmt.Sprintf("variants[%d]", i)
		if vin.ID != nil || vin.Delete {
			return invalid(field, "id and delete are not allowed on create")
		}
		if err := v.validateVariant(field, vin); err != nil {
			return err
		}
	}
	return nil
}

func (v *productValidator) ValidateUpdate(in usecase.ProductInput) error {
	if err := v.validateProduct(in); err != nil {
		return err
	}

	for i, vin := range in.Variants {
		field := fmt.Sprintf("variants[%d]", i)
		if vin.Delete {
			if vin.ID == nil || *vin.ID <= 0 {
				return invalid(field+".id", "required when delete is set")
			}
			continue
		}
		if vin.ID != nil && *vin.ID <= 0 {
			return invalid(field+".id", "must be positive")
		}
		if err := v.validateVariant(field, vin); err != nil {
			return err
		}
	}
	for i, id := range in.DeleteImageIDs {
		if id <= 0 {
			return invalid(fmt.Sprintf("delete_image_ids[%d]", i), "must be positive")
		}
	}
	return nil
}

func (v *productValidator) validateProduct(in usecase.ProductInput) error {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return invalid("name", "required")
	}
	if utf8.RuneCountInString(name) > maxNameLen {
		return invalid("name", fmt.Sprintf("at most %d characters", maxNameLen))
	}
	if strings.TrimSpace(in.Description) == "" {
		return invalid("description", "required")
	}
	if in.CategoryID <= 0 {
		return invalid("category_id", "required")
	}
	for i, f := range in.Images {
		if err := v.validateImage(fmt.Sprintf("images[%d]", i), f); err != nil {
			return err
		}
	}
	return nil
}

func (v *productValidator) validateVariant(field string, in usecase.VariantInput) error {
	sku := strings.TrimSpace(in.SKU)
	if sku == "" {
		return invalid(field+".sku", "required")
	}
	if len(sku) > maxSKULen {
		return invalid(field+".sku", fmt.Sprintf("at most %d characters", maxSKULen))
	}
	if in.Price.IsNegative() {
		return invalid(field+".price", "must not be negative")
	}
	if in.OriginalPrice != nil && in.OriginalPrice.IsNegative() {
		return invalid(field+".original_price", "must not be negative")
	}
	if in.StockQuantity < 0 {
		return invalid(field+".stock_quantity", "must not be negative")
	}
	for k := range in.Attributes {
		if strings.TrimSpace(k) == "" {
			return invalid(field+".attributes", "empty attribute name")
		}
	}
	if in.Image != nil {
		return v.validateImage(field+".image", *in.Image)
	}
	return nil
}

func (v *productValidator) validateImage(field string, f repo.FileUpload) error {
	ext := strings.ToLower(filepath.Ext(f.Filename))
	if !allowedImageExt[ext] {
		return invalid(field, "unsupported image type")
	}
	if len(f.Data) == 0 {
		return invalid(field, "empty file")
	}
	if v.maxUploadSize > 0 && int64(len(f.Data)) > v.maxUploadSize {
		return invalid(field, "file too large")
	}
	return nil
}
