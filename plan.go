package attrcodec

import (
	"reflect"
	"strings"
)

type structPlan struct {
	fields []fieldInfo
}

type fieldInfo struct {
	index     []int
	name      string
	omitEmpty bool
}

func (c *Codec) getPlan(t reflect.Type) *structPlan {
	c.mu.RLock()
	if plan, ok := c.plan[t]; ok {
		c.mu.RUnlock()
		return plan
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()

	// Double-check
	if plan, ok := c.plan[t]; ok {
		return plan
	}
	if c.plan == nil {
		c.plan = make(map[reflect.Type]*structPlan)
	}

	plan := &structPlan{}
	tagName := c.tagName()
	for _, sf := range reflect.VisibleFields(t) {
		if !sf.IsExported() {
			continue
		}
		if sf.Anonymous && indirectType(sf.Type).Kind() == reflect.Struct {
			continue // promoted fields are listed on their own
		}
		name, opts, _ := strings.Cut(sf.Tag.Get(tagName), ",")
		if name == "-" && opts == "" {
			continue
		}
		if name == "" {
			name = sf.Name
		}
		plan.fields = append(plan.fields, fieldInfo{
			index:     sf.Index,
			name:      name,
			omitEmpty: hasOption(opts, "omitempty"),
		})
	}
	c.plan[t] = plan
	return plan
}

func hasOption(opts, want string) bool {
	for opts != "" {
		var o string
		o, opts, _ = strings.Cut(opts, ",")
		if o == want {
			return true
		}
	}
	return false
}

func indirectType(t reflect.Type) reflect.Type {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}
