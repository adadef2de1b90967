package tools

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Args is the decoded arguments object of a call. Values follow
// encoding/json decoding into any: numbers arrive as float64.
type Args map[string]any

func (a Args) present(name string) bool {
	v, ok := a[name]
	if !ok || v == nil {
		return false
	}
	if s, isString := v.(string); isString {
		return strings.TrimSpace(s) != ""
	}
	return true
}

func (a Args) parseString(name string) (string, error) {
	switch v := a[name].(type) {
	case nil:
		return "", nil
	case string:
		return strings.TrimSpace(v), nil
	case float64, int, bool:
		return fmt.Sprint(v), nil
	default:
		return "", fmt.Errorf("argument %s must be a string", name)
	}
}

func (a Args) parseInteger(name string) (int, error) {
	switch v := a[name].(type) {
	case nil:
		return 0, nil
	case float64:
		if v != math.Trunc(v) {
			return 0, fmt.Errorf("argument %s must be an integer", name)
		}
		return int(v), nil
	case int:
		return v, nil
	case string:
		if strings.TrimSpace(v) == "" {
			return 0, nil
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, fmt.Errorf("argument %s must be an integer", name)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("argument %s must be an integer", name)
	}
}

func (a Args) parseStrings(name string) ([]string, error) {
	switch v := a[name].(type) {
	case nil:
		return []string{}, nil
	case []string:
		return v, nil
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("argument %s must be an array of strings", name)
			}
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
		return out, nil
	default:
		return nil, fmt.Errorf("argument %s must be an array of strings", name)
	}
}

func (a Args) parseObject(name string) (map[string]any, error) {
	switch v := a[name].(type) {
	case nil:
		return map[string]any{}, nil
	case map[string]any:
		return v, nil
	default:
		return nil, fmt.Errorf("argument %s must be an object", name)
	}
}

// check validates one declared argument against its kind.
func (a Args) check(arg Arg) error {
	var err error
	switch arg.Kind {
	case KindInteger:
		_, err = a.parseInteger(arg.Name)
	case KindStringList:
		_, err = a.parseStrings(arg.Name)
	case KindObject:
		_, err = a.parseObject(arg.Name)
	default:
		_, err = a.parseString(arg.Name)
	}
	return err
}

// The accessors below are used by handlers after check has passed.

func (a Args) str(name string) string {
	v, _ := a.parseString(name)
	return v
}

func (a Args) integer(name string) int {
	v, _ := a.parseInteger(name)
	return v
}

func (a Args) list(name string) []string {
	v, _ := a.parseStrings(name)
	return v
}

func (a Args) object(name string) map[string]any {
	v, _ := a.parseObject(name)
	return v
}
