package main

import (
	"encoding/hex"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/scidata-io/ncbridge/compress"
	"github.com/scidata-io/ncbridge/hostval"
	"github.com/scidata-io/ncbridge/memstore"
	"github.com/scidata-io/ncbridge/nctype"
)

func main() {
	var (
		varName     = flag.String("var", "", "Dump a single variable")
		metaOnly    = flag.Bool("meta", false, "Show definitions only, no data")
		selftest    = flag.String("selftest", "", "Write a demo dataset to the given path and exit")
		zname       = flag.String("z", "zstd", "Compression for -selftest: none, zstd, s2 or lz4")
		verbose     = flag.Bool("v", false, "Verbose logging")
		interactive = flag.Bool("i", false, "Interactive mode with TUI")
	)
	flag.Parse()

	if *verbose {
		logger, err := zap.NewDevelopment()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer logger.Sync()
		memstore.SetLogger(logger)
	}

	if *selftest != "" {
		kind, err := compress.ParseKind(*zname)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if err := writeSelftest(*selftest, kind); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Wrote demo dataset to %s\n", *selftest)
		return
	}

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Usage: ncbdump [-var name] [-meta] [-v] file.ncb")
		fmt.Fprintln(os.Stderr, "       ncbdump -i file.ncb  (interactive mode)")
		fmt.Fprintln(os.Stderr, "       ncbdump -selftest out.ncb [-z algo]")
		os.Exit(1)
	}
	path := flag.Arg(0)

	if *interactive {
		if err := runInteractive(path); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := dump(path, *varName, *metaOnly); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func dump(path, varName string, metaOnly bool) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	st, err := memstore.Open(f, memstore.Config{})
	if err != nil {
		return fmt.Errorf("load dataset: %w", err)
	}
	defer st.Close()

	fmt.Printf("dataset: %s (compression: %s)\n", path, st.Compression())
	printMeta(st)

	if metaOnly {
		return nil
	}

	names := st.VarNames()
	if varName != "" {
		names = []string{varName}
	}
	fmt.Println("data:")
	for _, name := range names {
		text, err := readVariable(st, name)
		if err != nil {
			return err
		}
		fmt.Printf("  %s = %s\n", name, text)
	}
	return nil
}

func printMeta(st *memstore.Store) {
	dims := st.Dims()
	if len(dims) > 0 {
		fmt.Println("dimensions:")
		for _, d := range dims {
			fmt.Printf("  %s = %d\n", d.Name, d.Length)
		}
	}
	types := st.Registry().UserTypes()
	if len(types) > 0 {
		fmt.Println("types:")
		for _, t := range types {
			fmt.Printf("  %s\n", formatType(t))
		}
	}
	names := st.VarNames()
	if len(names) == 0 {
		return
	}
	fmt.Println("variables:")
	for _, name := range names {
		v, err := st.Var(name)
		if err != nil {
			continue
		}
		typ, err := st.Registry().Lookup(v.Type)
		if err != nil {
			continue
		}
		sig := name
		if len(v.Dims) > 0 {
			sig += "(" + strings.Join(v.Dims, ", ") + ")"
		}
		fmt.Printf("  %s %s\n", typ.Name(), sig)
		printAttrs(v.Attrs())
		if v.HasData() {
			fmt.Printf("    data: %d bytes stored, %d serialized\n", v.StoredBytes(), v.RawBytes())
		}
	}
}

func printAttrs(a memstore.Attrs) {
	if a.FillValue != nil {
		fmt.Printf("    fill = 0x%s\n", hex.EncodeToString(a.FillValue))
	}
	if a.MinValid != nil {
		fmt.Printf("    min = 0x%s\n", hex.EncodeToString(a.MinValid))
	}
	if a.MaxValid != nil {
		fmt.Printf("    max = 0x%s\n", hex.EncodeToString(a.MaxValid))
	}
	if a.Scale != nil {
		fmt.Printf("    scale = %v\n", *a.Scale)
	}
	if a.Add != nil {
		fmt.Printf("    add = %v\n", *a.Add)
	}
}

func formatType(t *nctype.Type) string {
	switch t.Kind() {
	case nctype.KindEnum:
		var ms []string
		for _, m := range t.Members() {
			ms = append(ms, fmt.Sprintf("%s = %d", m.Name, m.Value))
		}
		return fmt.Sprintf("enum %s: %s {%s}", t.Name(), t.Base().Name(), strings.Join(ms, ", "))
	case nctype.KindOpaque:
		return fmt.Sprintf("opaque %s (%d bytes)", t.Name(), t.Size())
	case nctype.KindVlen:
		return fmt.Sprintf("vlen %s: %s", t.Name(), t.Base().Name())
	case nctype.KindCompound:
		var fs []string
		for _, f := range t.Fields() {
			fdims := ""
			if len(f.Dims) > 0 {
				var ds []string
				for _, d := range f.Dims {
					ds = append(ds, strconv.FormatInt(d, 10))
				}
				fdims = "[" + strings.Join(ds, ",") + "]"
			}
			fs = append(fs, fmt.Sprintf("%s: %s%s", f.Name, f.Type.Name(), fdims))
		}
		return fmt.Sprintf("compound %s {%s}", t.Name(), strings.Join(fs, ", "))
	}
	return t.Name()
}

func readVariable(st *memstore.Store, name string) (string, error) {
	v, err := st.Var(name)
	if err != nil {
		return "", err
	}
	if !v.HasData() {
		return "<no data>", nil
	}
	val, err := st.GetVar(name, memstore.GetOptions{FitNumeric: true})
	if err != nil {
		return "", fmt.Errorf("read %s: %w", name, err)
	}
	return formatValue(val), nil
}

// maxPrintElems caps how many elements a dump line shows.
const maxPrintElems = 256

func formatValue(v hostval.Value) string {
	var b strings.Builder
	writeValue(&b, v)
	return b.String()
}

func writeValue(b *strings.Builder, v hostval.Value) {
	switch v.Kind() {
	case hostval.KindFloat64:
		writeElems(b, v.Len(), func(i int) string {
			e := v.Float64s()[i]
			if hostval.IsNAFloat64(e) {
				return "NA"
			}
			return strconv.FormatFloat(e, 'g', -1, 64)
		})
	case hostval.KindInt32:
		writeElems(b, v.Len(), func(i int) string {
			e := v.Int32s()[i]
			if hostval.IsNAInt32(e) {
				return "NA"
			}
			return strconv.FormatInt(int64(e), 10)
		})
	case hostval.KindInt64:
		writeElems(b, v.Len(), func(i int) string {
			e := v.Int64s()[i]
			if hostval.IsNAInt64(e) {
				return "NA"
			}
			return strconv.FormatInt(e, 10)
		})
	case hostval.KindString:
		writeElems(b, v.Len(), func(i int) string {
			return strconv.Quote(v.Strings()[i])
		})
	case hostval.KindBytes:
		b.WriteString("0x")
		raw := v.Bytes()
		if len(raw) > maxPrintElems {
			b.WriteString(hex.EncodeToString(raw[:maxPrintElems]))
			b.WriteString("...")
		} else {
			b.WriteString(hex.EncodeToString(raw))
		}
	case hostval.KindFactor:
		levels := v.Levels()
		writeElems(b, v.Len(), func(i int) string {
			c := v.Codes()[i]
			if hostval.IsNAInt32(c) || c < 1 || int(c) > len(levels) {
				return "NA"
			}
			return levels[c-1]
		})
	case hostval.KindList:
		names := v.Names()
		items := v.Items()
		b.WriteByte('[')
		for i, item := range items {
			if i > 0 {
				b.WriteString(", ")
			}
			if len(names) > 0 && names[i] != "" {
				b.WriteString(names[i])
				b.WriteString(": ")
			}
			writeValue(b, item)
		}
		b.WriteByte(']')
	default:
		fmt.Fprintf(b, "<%s>", v.Kind())
	}
}

func writeElems(b *strings.Builder, n int, elem func(int) string) {
	if n == 1 {
		b.WriteString(elem(0))
		return
	}
	b.WriteByte('[')
	for i := 0; i < n; i++ {
		if i == maxPrintElems {
			b.WriteString(", ...")
			break
		}
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(elem(i))
	}
	b.WriteByte(']')
}

// writeSelftest builds a small dataset covering the type system and
// snapshots it, so the dump and interactive modes have something to
// open out of the box.
func writeSelftest(path string, kind compress.Kind) error {
	st, err := memstore.New(memstore.Config{Compression: kind})
	if err != nil {
		return err
	}
	defer st.Close()
	reg := st.Registry()

	if err := st.DefineDim("time", 6); err != nil {
		return err
	}
	if err := st.DefineDim("station", 2); err != nil {
		return err
	}

	quality, err := reg.DefineEnum("quality", nctype.UByteID, []nctype.Member{
		{Name: "good", Value: 0},
		{Name: "suspect", Value: 1},
		{Name: "bad", Value: 9},
	})
	if err != nil {
		return err
	}
	profile, err := reg.DefineVlen("profile", nctype.FloatID)
	if err != nil {
		return err
	}

	if err := st.DefineVar("temp", nctype.ShortID, "time", "station"); err != nil {
		return err
	}
	scale, add := 0.01, 0.0
	if err := st.SetAttrs("temp", memstore.Attrs{
		FillValue: []byte{0x00, 0x80},
		Scale:     &scale,
		Add:       &add,
	}); err != nil {
		return err
	}
	if err := st.DefineVar("qc", quality.ID(), "time"); err != nil {
		return err
	}
	if err := st.DefineVar("station_name", nctype.StringID, "station"); err != nil {
		return err
	}
	if err := st.DefineVar("depths", profile.ID(), "station"); err != nil {
		return err
	}

	na := hostval.NAFloat64()
	if err := st.PutVar("temp", hostval.Float64s([]float64{
		21.52, 20.15, 19.4, na, 18.01, 17.6, 23.3, 22.25, na, 20.8, 19.95, 21.07,
	})); err != nil {
		return err
	}
	if err := st.PutVar("qc", hostval.NewFactor(
		[]int32{1, 1, 2, 3, 1, 2}, []string{"good", "suspect", "bad"})); err != nil {
		return err
	}
	if err := st.PutVar("station_name", hostval.Strings([]string{"north ridge", "south basin"})); err != nil {
		return err
	}
	if err := st.PutVar("depths", hostval.List(
		hostval.Float64s([]float64{0, 5, 10, 20}),
		hostval.Float64s([]float64{0, 2.5}),
	)); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}
	defer f.Close()
	if _, err := st.WriteTo(f); err != nil {
		return err
	}
	return nil
}
