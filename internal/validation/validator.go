// Setlist - Music Library Enrichment for Playlist Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/setlist

// Package validation provides struct validation using go-playground/validator v10.
//
// Field names in error messages come from the koanf struct tag, so a failure
// on Config.LastFM.APIKey is reported as "lastfm.api_key", the same key a
// user writes in the YAML file.
//
//	type RetryConfig struct {
//	    MaxAttempts int `koanf:"max_attempts" validate:"min=1,max=10"`
//	}
//
//	if err := validation.ValidateStruct(cfg); err != nil {
//	    return fmt.Errorf("invalid configuration: %w", err)
//	}
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// FieldError is a single failed rule on one configuration key.
type FieldError struct {
	Path    string
	Tag     string
	Param   string
	Message string
}

func (e FieldError) Error() string {
	return e.Message
}

// ValidationErrors collects every failed rule of one ValidateStruct call.
type ValidationErrors struct {
	Fields []FieldError
}

func (ve *ValidationErrors) Error() string {
	if len(ve.Fields) == 0 {
		return "validation failed"
	}
	messages := make([]string, 0, len(ve.Fields))
	for _, f := range ve.Fields {
		messages = append(messages, f.Message)
	}
	return strings.Join(messages, "; ")
}

// GetValidator returns the shared validator instance.
func GetValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("koanf"), ",", 2)[0]
			if name == "" || name == "-" {
				return fld.Name
			}
			return name
		})
	})
	return validate
}

// ValidateStruct validates s and returns nil or a *ValidationErrors.
// The return type is error so a nil result compares equal to nil.
func ValidateStruct(s interface{}) error {
	err := GetValidator().Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return &ValidationErrors{Fields: []FieldError{{Path: "unknown", Tag: "unknown", Message: err.Error()}}}
	}

	out := &ValidationErrors{Fields: make([]FieldError, 0, len(fieldErrs))}
	for _, fe := range fieldErrs {
		path := fieldPath(fe.Namespace())
		out.Fields = append(out.Fields, FieldError{
			Path:    path,
			Tag:     fe.Tag(),
			Param:   fe.Param(),
			Message: translateError(fe, path),
		})
	}
	return out
}

// fieldPath drops the root struct name: "Config.lastfm.api_key" -> "lastfm.api_key".
func fieldPath(namespace string) string {
	if i := strings.Index(namespace, "."); i >= 0 {
		return namespace[i+1:]
	}
	return namespace
}

var errorMessageTemplates = map[string]string{
	"required":      "%s is required",
	"url":           "%s must be a valid URL",
	"http_url":      "%s must be an http or https URL",
	"hostname_port": "%s must be host:port",
}

var errorMessageWithParam = map[string]string{
	"oneof":           "%s must be one of: %s",
	"gte":             "%s must be greater than or equal to %s",
	"lte":             "%s must be less than or equal to %s",
	"gt":              "%s must be greater than %s",
	"required_if":     "%s is required when %s",
	"required_unless": "%s is required unless %s",
}

func translateError(fe validator.FieldError, path string) string {
	tag := fe.Tag()
	param := fe.Param()

	if template, ok := errorMessageTemplates[tag]; ok {
		return fmt.Sprintf(template, path)
	}
	if template, ok := errorMessageWithParam[tag]; ok {
		return fmt.Sprintf(template, path, param)
	}

	isString := fe.Kind() == reflect.String
	switch tag {
	case "min":
		if isString {
			return fmt.Sprintf("%s must be at least %s characters", path, param)
		}
		return fmt.Sprintf("%s must be at least %s", path, param)
	case "max":
		if isString {
			return fmt.Sprintf("%s must be at most %s characters", path, param)
		}
		return fmt.Sprintf("%s must be at most %s", path, param)
	default:
		return fmt.Sprintf("%s failed %s validation", path, tag)
	}
}
