package libsimplex

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/pkg/errors"

	"github.com/fine-structures/simplex.SDK/gosimplex"
)

const (
	EdgeCSVHeader      = "Source,Target,Energy,NumTriangles\n"
	EdgeListCSVHeader  = "Source,Target\n"
	CurvatureCSVHeader = "Node,Curvature\n"
)

// appendNumber appends v in its shortest round-trip form, so integral energies print without a fraction.
func appendNumber(io []byte, v float64) []byte {
	return strconv.AppendFloat(io, v, 'g', -1, 64)
}

// WriteEdgeCSV writes one "Source,Target,Energy,NumTriangles" row per edge in canonical order.
func WriteEdgeCSV(out io.Writer, net gosimplex.NetworkState) error {
	return writeRows(out, EdgeCSVHeader, func(w *bufio.Writer) error {
		var (
			line []byte
			err  error
		)
		net.ForEachEdge(func(e *gosimplex.Edge) bool {
			line = strconv.AppendInt(line[:0], int64(e.Key.U), 10)
			line = append(line, ',')
			line = strconv.AppendInt(line, int64(e.Key.V), 10)
			line = append(line, ',')
			line = appendNumber(line, e.Energy)
			line = append(line, ',')
			line = strconv.AppendInt(line, int64(e.NumTriangles), 10)
			line = append(line, '\n')
			_, err = w.Write(line)
			return err == nil
		})
		return err
	})
}

// WriteEdgeListCSV writes one "Source,Target" row per edge in canonical order.
func WriteEdgeListCSV(out io.Writer, net gosimplex.NetworkState) error {
	return writeRows(out, EdgeListCSVHeader, func(w *bufio.Writer) error {
		var (
			line []byte
			err  error
		)
		net.ForEachEdge(func(e *gosimplex.Edge) bool {
			line = strconv.AppendInt(line[:0], int64(e.Key.U), 10)
			line = append(line, ',')
			line = strconv.AppendInt(line, int64(e.Key.V), 10)
			line = append(line, '\n')
			_, err = w.Write(line)
			return err == nil
		})
		return err
	})
}

// WriteCurvatureCSV writes one "Node,Curvature" row per node in ascending id order.
func WriteCurvatureCSV(out io.Writer, net gosimplex.NetworkState) error {
	return writeRows(out, CurvatureCSVHeader, func(w *bufio.Writer) error {
		var (
			line []byte
			err  error
		)
		net.ForEachNode(func(n gosimplex.Node) bool {
			line = strconv.AppendInt(line[:0], int64(n.ID), 10)
			line = append(line, ',')
			line = appendNumber(line, Curvature(net, n.ID))
			line = append(line, '\n')
			_, err = w.Write(line)
			return err == nil
		})
		return err
	})
}

func writeRows(out io.Writer, header string, body func(w *bufio.Writer) error) error {
	w := bufio.NewWriter(out)
	if _, err := w.WriteString(header); err != nil {
		return err
	}
	if err := body(w); err != nil {
		return err
	}
	return w.Flush()
}

func ExportEdgeCSV(pathname string, net gosimplex.NetworkState) error {
	return exportFile(pathname, net, WriteEdgeCSV)
}

func ExportEdgeList(pathname string, net gosimplex.NetworkState) error {
	return exportFile(pathname, net, WriteEdgeListCSV)
}

func ExportCurvature(pathname string, net gosimplex.NetworkState) error {
	return exportFile(pathname, net, WriteCurvatureCSV)
}

func exportFile(pathname string, net gosimplex.NetworkState, write func(io.Writer, gosimplex.NetworkState) error) error {
	if dir := filepath.Dir(pathname); dir != "." {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return errors.Wrapf(err, "creating %q", dir)
		}
	}

	file, err := os.OpenFile(pathname, os.O_TRUNC|os.O_WRONLY|os.O_CREATE, 0644)
	if err != nil {
		return errors.Wrapf(err, "exporting %q", pathname)
	}

	err = write(file, net)
	if closeErr := file.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return errors.Wrapf(err, "exporting %q", pathname)
	}
	return nil
}
