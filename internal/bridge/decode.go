// Package bridge decodes untyped trees (parsed JSON or YAML, front-end
// payloads) into domain types with strict field checking.
package bridge

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"

	"github.com/xiaoquanidea/fast-clean-x/internal/domain"
)

// DecodeError lists every problem found while decoding into Target.
type DecodeError struct {
	Target   string
	Problems []string
}

func (err *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %s", err.Target, strings.Join(err.Problems, "; "))
}

func DecodeScanResult(raw interface{}) (*domain.ScanResult, error) {
	var result domain.ScanResult
	if err := decode("ScanResult", raw, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func DecodeConfig(raw interface{}) (domain.Config, error) {
	var config domain.Config
	if err := decode("Config", raw, &config); err != nil {
		return domain.Config{}, err
	}
	return config, nil
}

func DecodeItems(raw interface{}) ([]domain.ScanItem, error) {
	var items []domain.ScanItem
	if err := decode("[]ScanItem", raw, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// ReadScanResultJSON parses a JSON report and decodes it as a ScanResult.
func ReadScanResultJSON(reader io.Reader) (*domain.ScanResult, error) {
	var raw interface{}
	decoder := json.NewDecoder(reader)
	decoder.UseNumber()
	if err := decoder.Decode(&raw); err != nil {
		return nil, &DecodeError{Target: "ScanResult", Problems: []string{err.Error()}}
	}
	return DecodeScanResult(raw)
}

func decode(target string, raw interface{}, out interface{}) error {
	if raw == nil {
		return &DecodeError{Target: target, Problems: []string{"input is empty"}}
	}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			jsonNumberHook,
			mapstructure.StringToTimeHookFunc(time.RFC3339),
			durationHook,
		),
		ErrorUnused:      true,
		WeaklyTypedInput: false,
		Result:           out,
		TagName:          "mapstructure",
	})
	if err != nil {
		return err
	}
	if err := decoder.Decode(raw); err != nil {
		var mapErr *mapstructure.Error
		if errors.As(err, &mapErr) {
			return &DecodeError{Target: target, Problems: append([]string{}, mapErr.Errors...)}
		}
		return &DecodeError{Target: target, Problems: []string{err.Error()}}
	}
	return nil
}

// jsonNumberHook turns json.Number into the numeric kind the field wants.
func jsonNumberHook(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
	number, ok := data.(json.Number)
	if !ok {
		return data, nil
	}
	switch to.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return number.Int64()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		value, err := number.Int64()
		if err != nil {
			return nil, err
		}
		if value < 0 {
			return nil, fmt.Errorf("negative value %s for unsigned field", number)
		}
		return uint64(value), nil
	case reflect.Float32, reflect.Float64:
		return number.Float64()
	case reflect.String:
		return number.String(), nil
	default:
		return data, nil
	}
}

// durationHook accepts "1.5s" style strings and nanosecond integers.
func durationHook(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
	if to != reflect.TypeOf(time.Duration(0)) {
		return data, nil
	}
	switch value := data.(type) {
	case string:
		return time.ParseDuration(value)
	case int64:
		return time.Duration(value), nil
	case int:
		return time.Duration(value), nil
	case float64:
		return time.Duration(int64(value)), nil
	default:
		return data, nil
	}
}
