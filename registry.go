package xmlbind

import (
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/tidalcode/xmlbind/internal/nsstack"
)

// fieldInfo is one entry in a typeInfo's dispatch table. Field tables are
// plain slices searched linearly (not maps), per spec §9's explicit
// cache-behavior recommendation: "typical compositions have few fields and
// linear search wins on cache behavior."
type fieldInfo struct {
	structField int // index into the struct's fields
	name        string
	id          Id // meaningful for RoleAttribute and RoleChildElement
	role        FieldRole
	accum       AccumKind
	elemType    reflect.Type // T, with the outer []T/*T stripped off
	fieldType   reflect.Type
	elemKind    Kind
}

// typeInfo is the descriptor a derive generator would have emitted at
// compile time; here it is built once per reflect.Type and cached (spec
// §9's registration-API fallback: "a descriptor ... built once at program
// start" — here, built once at first use and memoized).
type typeInfo struct {
	rootId     Id
	frame      Frame
	forward    bool
	variants   []any
	attrs      []fieldInfo
	children   []fieldInfo
	text       *fieldInfo
	structType reflect.Type
}

var registryCache sync.Map // reflect.Type -> *typeInfo

func typeInfoFor(t reflect.Type) (*typeInfo, error) {
	if cached, ok := registryCache.Load(t); ok {
		return cached.(*typeInfo), nil
	}

	info, err := buildTypeInfo(t)
	if err != nil {
		return nil, err
	}

	actual, _ := registryCache.LoadOrStore(t, info)
	return actual.(*typeInfo), nil
}

func buildTypeInfo(t reflect.Type) (*typeInfo, error) {
	if t.Kind() != reflect.Struct {
		return nil, newErr(KindOther, "xmlbind: "+t.String()+" is not a struct and cannot be registered")
	}

	bindings := Bindings{Rename: t.Name()}
	var forwardBinder ForwardBinder
	zero := reflect.New(t).Elem().Interface()
	if b, ok := zero.(Binder); ok {
		user := b.XMLBindings()
		if user.Rename != "" {
			bindings.Rename = user.Rename
		}
		bindings.DefaultURI = user.DefaultURI
		bindings.Prefixes = user.Prefixes
		bindings.Forward = user.Forward
	}
	if fb, ok := zero.(ForwardBinder); ok {
		forwardBinder = fb
	}

	info := &typeInfo{
		rootId:     Id{URI: bindings.DefaultURI, Local: bindings.Rename},
		forward:    bindings.Forward,
		structType: t,
	}
	if forwardBinder != nil {
		info.variants = forwardBinder.XMLVariants()
	}
	if info.forward {
		// A forwarding wrapper's fields are not dispatched: its payload is
		// reached through its Value field by the forward (de)serializers.
		return info, nil
	}

	prefixURI := map[string]string{}
	info.frame = Frame{DefaultURI: bindings.DefaultURI}
	for _, p := range bindings.Prefixes {
		prefixURI[p.Prefix] = p.URI
		info.frame.Bindings = append(info.frame.Bindings, nsstack.Binding{Prefix: p.Prefix, URI: p.URI})
	}

	seenAttrIds := map[Id]string{}
	seenChildIds := map[Id]string{}

	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}

		tag, ok := sf.Tag.Lookup("xmlbind")
		if !ok && sf.Tag.Get("xml") != "" {
			tag = sf.Tag.Get("xml")
		}
		opts := parseFieldTag(tag)
		if opts.skip {
			continue
		}

		name := opts.name
		if name == "" {
			name = sf.Name
		}

		fieldType := sf.Type
		accum := AccumOnce
		elemType := fieldType
		if fieldType.Kind() == reflect.Ptr {
			accum = AccumOptional
			elemType = fieldType.Elem()
		} else if fieldType.Kind() == reflect.Slice && fieldType.Elem().Kind() != reflect.Uint8 {
			accum = AccumMany
			elemType = fieldType.Elem()
		}

		elemKind := KindElement
		if isTextScalar(elemType) {
			elemKind = KindScalar
		}

		if opts.text {
			if info.text != nil {
				return nil, newErr(KindOther, "xmlbind: "+t.String()+" has more than one text field")
			}
			info.text = &fieldInfo{
				structField: i, name: name, role: RoleText,
				accum: accum, elemType: elemType, fieldType: fieldType, elemKind: elemKind,
			}
			continue
		}

		var uri string
		switch {
		case elemKind == KindElement && !opts.attr:
			// Element-kind fields self-wrap: their Id's namespace is
			// whatever the child type itself declares, never the parent's
			// default or a field-level override (spec §4.4: "Element
			// children self-wrap"). Only the local name is overridable at
			// the field level.
			childBase := elemType
			if childBase.Kind() == reflect.Ptr {
				childBase = childBase.Elem()
			}
			childInfo, err := typeInfoFor(childBase)
			if err != nil {
				return nil, err
			}
			uri = childInfo.rootId.URI
		case opts.nsRef != "":
			resolved, ok := prefixURI[opts.nsRef]
			if !ok {
				return nil, newErr(KindOther, fmt.Sprintf(
					"xmlbind: %s field %s references undeclared prefix %q", t.String(), sf.Name, opts.nsRef))
			}
			uri = resolved
		case opts.nsURI != "":
			uri = opts.nsURI
		case opts.attr:
			uri = "" // unprefixed attributes carry no namespace by default
		default:
			uri = bindings.DefaultURI
		}

		id := Id{URI: uri, Local: name}
		fi := fieldInfo{
			structField: i, name: name, id: id,
			accum: accum, elemType: elemType, fieldType: fieldType, elemKind: elemKind,
		}

		if opts.attr {
			fi.role = RoleAttribute
			if owner, dup := seenAttrIds[id]; dup {
				return nil, newErr(KindOther, fmt.Sprintf(
					"xmlbind: %s: attributes %s and %s both resolve to %s", t.String(), owner, sf.Name, id))
			}
			seenAttrIds[id] = sf.Name
			info.attrs = append(info.attrs, fi)
		} else {
			fi.role = RoleChildElement
			if owner, dup := seenChildIds[id]; dup {
				return nil, newErr(KindOther, fmt.Sprintf(
					"xmlbind: %s: children %s and %s both resolve to %s", t.String(), owner, sf.Name, id))
			}
			seenChildIds[id] = sf.Name
			info.children = append(info.children, fi)
		}
	}

	return info, nil
}

type fieldTagOptions struct {
	name  string
	attr  bool
	text  bool
	nsURI string
	nsRef string
	skip  bool
}

func parseFieldTag(tag string) fieldTagOptions {
	if tag == "-" {
		return fieldTagOptions{skip: true}
	}

	parts := strings.Split(tag, ",")
	var opts fieldTagOptions
	if len(parts) > 0 {
		opts.name = parts[0]
	}
	for _, p := range parts[1:] {
		switch {
		case p == "attr":
			opts.attr = true
		case p == "text" || p == "chardata":
			opts.text = true
		case strings.HasPrefix(p, "ns="):
			opts.nsURI = strings.TrimPrefix(p, "ns=")
		case strings.HasPrefix(p, "nsref="):
			opts.nsRef = strings.TrimPrefix(p, "nsref=")
		}
	}
	return opts
}
