package main

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-python/gpython/py"
)

func TestGold(t *testing.T) {
	scriptDir, err := filepath.Abs("scripts")
	if err != nil {
		t.Fatal(err)
	}
	files, err := os.ReadDir(scriptDir)
	if err != nil {
		t.Fatal(err)
	}

	workDir := t.TempDir()
	prevDir, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err = os.Chdir(workDir); err != nil {
		t.Fatal(err)
	}
	defer os.Chdir(prevDir)

	goldDir := filepath.Join(workDir, "gold")
	os.MkdirAll(goldDir, 0700)

	for _, fi := range files {
		pyFile := filepath.Join(scriptDir, fi.Name())
		ext := filepath.Ext(pyFile)
		if ext != ".py" {
			continue
		}

		outputPathname := filepath.Join(goldDir, strings.TrimSuffix(fi.Name(), ext)+".txt")
		{
			ctx := py.NewContext(py.DefaultContextOpts())
			redirect, err := RedirectToFile(outputPathname, ctx)
			if err != nil {
				t.Fatal(err)
			}

			_, err = py.RunFile(ctx, pyFile, py.CompileOpts{}, nil)
			ctx.Close()
			<-ctx.Done()

			if closeErr := redirect.Close(); closeErr != nil {
				t.Fatal(closeErr)
			}
			if err != nil {
				py.TracebackDump(err)
				t.Fatalf("%s: %v", fi.Name(), err)
			}
		}

		out, err := os.ReadFile(outputPathname)
		if err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(string(out), "Network(") {
			t.Fatalf("%s: unexpected output:\n%s", fi.Name(), out)
		}
	}

	for _, name := range []string{"fermi_edges.csv", "fermi_edgelist.csv", "fermi_curvature.csv"} {
		if _, err := os.Stat(filepath.Join(workDir, "out", name)); err != nil {
			t.Fatal(err)
		}
	}
}

type pyRedirect struct {
	file       *os.File
	prevStdout *os.File
}

func RedirectToFile(outputPathname string, ctx py.Context) (io.Closer, error) {
	ofile, err := os.OpenFile(outputPathname, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return nil, err
	}

	sys := ctx.Store().MustGetModule("sys")
	sys.Globals["stdout"] = &py.File{
		File:     ofile,
		FileMode: py.FileWrite,
	}

	redir := &pyRedirect{
		file:       ofile,
		prevStdout: os.Stdout,
	}
	os.Stdout = ofile
	return redir, nil
}

func (redir *pyRedirect) Close() error {
	if redir.prevStdout == nil {
		return nil
	}

	os.Stdout = redir.prevStdout
	err := redir.file.Close()
	redir.file = nil
	redir.prevStdout = nil
	return err
}
