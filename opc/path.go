package opc

import (
	"path"
	"strings"
)

// RelsPath returns the relationship part that belongs to part:
// "/xl/workbook.xml" maps to "/xl/_rels/workbook.xml.rels" and the package
// itself ("" or "/") to "/_rels/.rels".
func RelsPath(part string) string {
	if part == "" || part == "/" {
		return "/_rels/.rels"
	}
	dir, base := path.Split(Abs(part))
	return dir + "_rels/" + base + ".rels"
}

// Abs normalizes a part name to its absolute, slash-rooted form.
func Abs(name string) string {
	if !strings.HasPrefix(name, "/") {
		name = "/" + name
	}
	return path.Clean(name)
}

// ResolveTarget turns a relationship target into an absolute part name,
// relative to the directory of the source part.
func ResolveTarget(source, target string) string {
	if strings.HasPrefix(target, "/") {
		return path.Clean(target)
	}
	dir := "/"
	if source != "" && source != "/" {
		dir = path.Dir(Abs(source))
	}
	return path.Clean(path.Join(dir, target))
}

// RelativeTarget is the inverse of ResolveTarget: the path of target as
// seen from the directory of source.
func RelativeTarget(source, target string) string {
	target = Abs(target)
	if source == "" || source == "/" {
		return strings.TrimPrefix(target, "/")
	}
	from := strings.Split(strings.Trim(path.Dir(Abs(source)), "/"), "/")
	to := strings.Split(strings.TrimPrefix(target, "/"), "/")
	if len(from) == 1 && from[0] == "" {
		from = nil
	}
	i := 0
	for i < len(from) && i < len(to)-1 && from[i] == to[i] {
		i++
	}
	var sb strings.Builder
	for j := i; j < len(from); j++ {
		sb.WriteString("../")
	}
	sb.WriteString(strings.Join(to[i:], "/"))
	return sb.String()
}

// Ext returns the lower-case extension of a part name without the dot.
func Ext(name string) string {
	return strings.ToLower(strings.TrimPrefix(path.Ext(name), "."))
}

// RelsSource is the inverse of RelsPath. ok is false when name is not a
// relationship part.
func RelsSource(name string) (string, bool) {
	name = Abs(name)
	dir, base := path.Split(name)
	if !strings.HasSuffix(dir, "/_rels/") || !strings.HasSuffix(base, ".rels") {
		return "", false
	}
	src := strings.TrimSuffix(dir, "_rels/") + strings.TrimSuffix(base, ".rels")
	if src == "/" {
		return "/", true
	}
	return src, true
}
