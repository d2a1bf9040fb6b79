package breadbot

import (
	"reflect"
	"slices"
	"strings"
	"sync"
)

// The package catalog stands in for classpath scanning: command packages
// register prototypes from init and AddPackage picks them up by import path.
var catalog = struct {
	sync.RWMutex
	types map[string][]reflect.Type
}{types: make(map[string][]reflect.Type)}

// Register records the types of prototypes under their package path. It is
// meant to be called from init:
//
//	func init() { breadbot.Register(PingCommand{}, MathCommand{}) }
func Register(prototypes ...any) {
	catalog.Lock()
	defer catalog.Unlock()
	for _, p := range prototypes {
		t := reflect.TypeOf(p)
		if t == nil {
			continue
		}
		if t.Kind() == reflect.Pointer {
			t = t.Elem()
		}
		if t.Name() == "" || t.PkgPath() == "" {
			continue
		}
		if !slices.Contains(catalog.types[t.PkgPath()], t) {
			catalog.types[t.PkgPath()] = append(catalog.types[t.PkgPath()], t)
		}
	}
}

// Registered returns the named struct types registered under pkgPath or any
// package below it that declare commands, ordered by package then name.
func Registered(pkgPath string) []reflect.Type {
	catalog.RLock()
	defer catalog.RUnlock()
	pkgPath = strings.TrimSuffix(pkgPath, "/")
	var out []reflect.Type
	for pkg, types := range catalog.types {
		if pkg != pkgPath && !strings.HasPrefix(pkg, pkgPath+"/") {
			continue
		}
		for _, t := range types {
			if t.Kind() == reflect.Struct && IsCommandType(t) {
				out = append(out, t)
			}
		}
	}
	slices.SortFunc(out, func(a, b reflect.Type) int {
		if c := strings.Compare(a.PkgPath(), b.PkgPath()); c != 0 {
			return c
		}
		return strings.Compare(a.Name(), b.Name())
	})
	return out
}
