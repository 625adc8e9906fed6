// tz-lookup：命令行解析经纬度为时区偏移，或以 -check 校验数据资产
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"geotz/internal/bands"
	"geotz/internal/boundary"
	"geotz/internal/config"
	"geotz/internal/logger"
	"geotz/internal/offsets"
	"geotz/internal/resolver"

	"github.com/fatih/color"
)

var (
	check   = flag.Bool("check", false, "Verify national ids against the offset table and the band partition, then exit")
	verbose = flag.Bool("verbose", false, "Enable debug logging")
	raw     = flag.Bool("raw", false, "Write tab-separated raw values instead of coloured output")
)

var (
	tierColor = map[string]*color.Color{
		"national": color.New(color.FgGreen),
		"global":   color.New(color.FgYellow),
		"band":     color.New(color.FgHiBlack),
	}
	errColor = color.New(color.FgRed)
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] [lon lat]...\n", os.Args[0])
		fmt.Fprintln(os.Stderr, "Without coordinates, reads \"lon lat\" pairs from stdin.")
		flag.PrintDefaults()
	}
	flag.Parse()

	cfg, err := config.Load(".env", filepath.Join("data", "env", ".env"))
	level := os.Getenv("LOG_LEVEL")
	if *verbose {
		level = "debug"
	}
	l := logger.SetupWith(os.Stderr, level, os.Getenv("LOG_FORMAT"))
	if err != nil {
		l.Error("config_error", "err", err)
		os.Exit(1)
	}
	paths := resolver.Paths{National: cfg.NationalPath, Global: cfg.GlobalPath, Offsets: cfg.OffsetsPath}

	if *check {
		os.Exit(runCheck(paths, os.Stdout))
	}
	r, err := resolver.Load(paths)
	if err != nil {
		l.Error("resolver_init_error", "err", err)
		os.Exit(1)
	}
	var in io.Reader = os.Stdin
	if args := flag.Args(); len(args) > 0 {
		in = strings.NewReader(strings.Join(args, " "))
	}
	os.Exit(runLookup(r, in, os.Stdout, *raw))
}

// runLookup：按空白切分输入，两两组成 lon lat；返回进程退出码
func runLookup(r *resolver.Resolver, in io.Reader, out io.Writer, raw bool) int {
	sc := bufio.NewScanner(in)
	sc.Split(bufio.ScanWords)
	code := 0
	for {
		lonS, lonOK := next(sc)
		if !lonOK {
			break
		}
		latS, latOK := next(sc)
		if !latOK {
			errColor.Fprintf(out, "%s: missing latitude\n", lonS)
			return 2
		}
		lon, err1 := strconv.ParseFloat(lonS, 64)
		lat, err2 := strconv.ParseFloat(latS, 64)
		if err1 != nil || err2 != nil {
			errColor.Fprintf(out, "%s %s: not a number\n", lonS, latS)
			code = 2
			continue
		}
		res, err := r.Resolve(lon, lat)
		if err != nil {
			errColor.Fprintf(out, "%s %s: %v\n", lonS, latS, err)
			code = 2
			continue
		}
		o := res.Offsets
		if raw {
			fmt.Fprintf(out, "%v\t%v\t%s\t%s\t%v\t%v\t%v\n", res.Lon, res.Lat, res.Tier, res.Source, o.Winter, o.Summer, o.GMT)
			continue
		}
		c := tierColor[res.Tier.String()]
		fmt.Fprintf(out, "%v %v  ", res.Lon, res.Lat)
		c.Fprintf(out, "%-8s %s", res.Tier, res.Source)
		fmt.Fprintf(out, "  winter=%+g summer=%+g gmt=%+g\n", o.Winter, o.Summer, o.GMT)
	}
	if err := sc.Err(); err != nil {
		errColor.Fprintf(out, "read input: %v\n", err)
		return 1
	}
	return code
}

func next(sc *bufio.Scanner) (string, bool) {
	if !sc.Scan() {
		return "", false
	}
	return sc.Text(), true
}

// runCheck：分别报告每项资产的问题，而不是在第一个错误处停下
func runCheck(p resolver.Paths, out io.Writer) int {
	ok := color.New(color.FgGreen).SprintFunc()
	bad := errColor.SprintFunc()
	failed := false
	report := func(name string, err error) {
		if err != nil {
			failed = true
			fmt.Fprintf(out, "%s %s: %v\n", bad("FAIL"), name, err)
			return
		}
		fmt.Fprintf(out, "%s %s\n", ok("ok  "), name)
	}

	bt := bands.Default()
	report(fmt.Sprintf("bands (%d rows, %d reachable)", len(bt.Bands()), bt.Reachable()), bt.Validate())

	nb, nst, nerr := boundary.LoadFile(p.National)
	report(fmt.Sprintf("national %s (%d loaded, %d skipped)", p.National, nst.Loaded, nst.Skipped), nerr)
	_, gst, gerr := boundary.LoadFile(p.Global)
	report(fmt.Sprintf("global %s (%d loaded, %d skipped)", p.Global, gst.Loaded, gst.Skipped), gerr)
	tbl, terr := offsets.Load(p.Offsets)
	report(fmt.Sprintf("offsets %s (%d records)", p.Offsets, tbl.Len()), terr)

	if nerr == nil && terr == nil {
		ids := make([]string, len(nb))
		for i, b := range nb {
			ids[i] = b.ID
		}
		var err error
		if missing := tbl.Missing(ids); len(missing) > 0 {
			err = fmt.Errorf("%d without offset record: %s", len(missing), strings.Join(missing, ", "))
		}
		report("national ids in offset table", err)
	}
	if nerr == nil && gerr == nil && terr == nil {
		_, err := resolver.Load(p)
		report("resolver build", err)
	}
	if failed {
		return 1
	}
	return 0
}
