// internal/arch/arch_test.go
package arch

import (
	"bytes"
	"encoding/json"
	"io"
	"os/exec"
	"strings"
	"testing"
)

const mod = "github.com/natir/pcon/"

type pkg struct {
	ImportPath string
	Imports    []string
	Standard   bool
}

func TestImportBoundaries(t *testing.T) {
	if _, err := exec.LookPath("go"); err != nil {
		t.Skip("go tool not in PATH")
	}
	cmd := exec.Command("go", "list", "-json", "./...")
	cmd.Dir = "../.."
	var out bytes.Buffer
	cmd.Stdout = &out
	if err := cmd.Run(); err != nil {
		t.Fatalf("go list: %v", err)
	}
	dec := json.NewDecoder(&out)

	// Layers above the counting core.
	front := []string{
		mod + "internal/app", mod + "internal/appshell", mod + "internal/cli",
		mod + "internal/cliutil", mod + "internal/writers", mod + "internal/stats",
		mod + "cmd/",
	}
	bans := map[string][]string{
		// leaves
		mod + "internal/kmer":      {mod},
		mod + "internal/compress":  {mod},
		mod + "internal/fasta":     append([]string{mod + "internal/count", mod + "internal/pipeline"}, front...),
		mod + "internal/pipeline":  append([]string{mod + "internal/count"}, front...),
		mod + "internal/count":     append([]string{mod + "internal/serialize", mod + "internal/spectrum"}, front...),
		mod + "internal/solid":     append([]string{mod + "internal/serialize"}, front...),
		mod + "internal/spectrum":  append([]string{mod + "internal/serialize"}, front...),
		mod + "internal/serialize": front,
		mod + "internal/cmdutil":   front,
	}

	var violations []string
	for {
		var p pkg
		if err := dec.Decode(&p); err == io.EOF {
			break
		} else if err != nil {
			t.Fatalf("decode: %v", err)
		}
		if !strings.HasPrefix(p.ImportPath, mod) {
			continue
		}
		imp := p.ImportPath
		for prefix, forbidden := range bans {
			if imp != prefix {
				continue
			}
			for _, dep := range p.Imports {
				if !strings.HasPrefix(dep, mod) {
					continue
				}
				for _, ban := range forbidden {
					if strings.HasPrefix(dep, ban) {
						violations = append(violations, imp+" → "+dep)
					}
				}
			}
		}
	}

	if len(violations) > 0 {
		t.Fatalf("import boundary violations:\n  %s", strings.Join(violations, "\n  "))
	}
}
