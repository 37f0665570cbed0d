package sandbox

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/dop251/goja"
)

// formatValue renders a console argument the way a browser console would
// before posting: undefined and null literally, objects as indented JSON.
func formatValue(vm *goja.Runtime, value goja.Value, maxChars int) string {
	if value == nil || goja.IsUndefined(value) {
		return "undefined"
	}
	if goja.IsNull(value) {
		return "null"
	}
	if obj, ok := value.(*goja.Object); ok {
		if _, isFunc := goja.AssertFunction(obj); !isFunc {
			if text, ok := stringify(vm, obj); ok {
				return truncate(text, maxChars)
			}
		}
	}
	return truncate(value.String(), maxChars)
}

func stringify(vm *goja.Runtime, obj *goja.Object) (text string, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			text, ok = "", false
		}
	}()
	jsonObj := vm.Get("JSON")
	if jsonObj == nil {
		return "", false
	}
	fn, isFunc := goja.AssertFunction(jsonObj.ToObject(vm).Get("stringify"))
	if !isFunc {
		return "", false
	}
	result, err := fn(jsonObj, obj, goja.Null(), vm.ToValue(2))
	if err != nil || result == nil || goja.IsUndefined(result) {
		return "", false
	}
	return result.String(), true
}

// truncate shortens text to maxChars characters and appends a marker with
// the original length.
func truncate(text string, maxChars int) string {
	if maxChars <= 0 || len(text) <= maxChars {
		return text
	}
	total := utf8.RuneCountInString(text)
	if total <= maxChars {
		return text
	}
	var b strings.Builder
	b.Grow(maxChars + 64)
	count := 0
	for _, r := range text {
		if count == maxChars {
			break
		}
		b.WriteRune(r)
		count++
	}
	fmt.Fprintf(&b, "\n... [Output truncated - %d characters total]", total)
	return b.String()
}
