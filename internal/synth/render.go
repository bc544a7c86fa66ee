package synth

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"strings"
	"text/template"

	"github.com/pkg/errors"

	"github.com/sghaida/odimerge/internal/decl"
)

// Digest hashes the inputs of a run in order. It is stamped into the
// rendered listing so stale output is easy to spot.
func Digest(inputs ...[]byte) string {
	h := sha256.New()
	for _, in := range inputs {
		_, _ = h.Write(in)
		_, _ = h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

type listingData struct {
	Unit         string
	InputsHash   string
	Declarations []*decl.Declaration
}

// Render writes a human readable listing of decls.
func Render(w io.Writer, unit, inputsHash string, decls []*decl.Declaration) error {
	data := listingData{Unit: unit, InputsHash: inputsHash, Declarations: decls}
	if err := listingTemplate.Execute(w, data); err != nil {
		return errors.Wrap(err, "render listing")
	}
	return nil
}

var listingFuncs = template.FuncMap{
	"types": func(ts []decl.Type) string {
		parts := make([]string, len(ts))
		for i, t := range ts {
			parts[i] = t.String()
		}
		return strings.Join(parts, ", ")
	},
	"params": func(ps []decl.Param) string {
		parts := make([]string, len(ps))
		for i, p := range ps {
			parts[i] = p.Name + ": " + p.Type.String()
		}
		return strings.Join(parts, ", ")
	},
}

var listingTemplate = template.Must(
	template.New("listing").Funcs(listingFuncs).Parse(`// Code generated by odimerge; DO NOT EDIT.
// Unit: {{.Unit}}
// Inputs-SHA256: {{.InputsHash}}
{{range .Declarations}}
{{- range .Annotations}}
{{.}}
{{- end}}
{{.Kind}} {{.ID}}{{if .Supertypes}} : {{types .Supertypes}}{{end}} {
{{- range .Functions}}
{{- range .Annotations}}
    {{.}}
{{- end}}
    {{if .Abstract}}abstract {{end}}fun {{.Name}}({{params .Params}}): {{.Returns}}
{{- end}}
}
{{end}}`))
