package main

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/joshuapare/slabkit/mem/alloc"
)

var (
	bucketsPreset   string
	bucketsScale    string
	bucketsStep     int
	bucketsMax      int
	bucketsElemSize int
)

func init() {
	cmd := newBucketsCmd()
	cmd.Flags().StringVar(&bucketsPreset, "preset", "",
		"Named configuration ("+strings.Join(presetNames(), ", ")+")")
	cmd.Flags().StringVar(&bucketsScale, "scale", "log2", "Bucket function: linear or log2")
	cmd.Flags().IntVar(&bucketsStep, "step", 8, "Step for the linear scale")
	cmd.Flags().IntVar(&bucketsMax, "max", alloc.DefaultMaxBuckets, "Number of tracked buckets")
	cmd.Flags().IntVar(&bucketsElemSize, "elem-size", 8, "Element size in bytes, for block byte sizes")
	rootCmd.AddCommand(cmd)
}

func newBucketsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "buckets",
		Short: "Print the size-class table of an array scale",
		Long: `The buckets command prints, for each tracked order, the physical capacity
of its blocks and the range of logical lengths filed into it.

Example:
  slabctl buckets --scale log2 --max 16
  slabctl buckets --scale linear --step 4 --max 8 --elem-size 16
  slabctl buckets --preset Coarse --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuckets()
		},
	}
	return cmd
}

// BucketRow is one line of the buckets table.
type BucketRow struct {
	alloc.Bucket
	Bytes int `json:"bytes"`
}

// BucketTable is the JSON form of the buckets command.
type BucketTable struct {
	Scale      string      `json:"scale"`
	MaxBuckets int         `json:"max_buckets"`
	ElemSize   int         `json:"elem_size"`
	Buckets    []BucketRow `json:"buckets"`
}

func runBuckets() error {
	scale, maxBuckets, err := resolveScale()
	if err != nil {
		return err
	}
	if bucketsElemSize <= 0 {
		return fmt.Errorf("--elem-size must be positive, got %d", bucketsElemSize)
	}

	table := BucketTable{
		Scale:      scale.String(),
		MaxBuckets: maxBuckets,
		ElemSize:   bucketsElemSize,
	}
	for _, b := range scale.Buckets(maxBuckets) {
		table.Buckets = append(table.Buckets, BucketRow{Bucket: b, Bytes: b.Size * bucketsElemSize})
	}

	if jsonOut {
		return printJSON(table)
	}

	p := message.NewPrinter(language.English)
	printVerbose("Scale %s, %d buckets, %d-byte elements\n", table.Scale, maxBuckets, bucketsElemSize)
	if quiet {
		return nil
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(w, "ORDER\tCAPACITY\tLENGTHS\tBYTES\t")
	for _, row := range table.Buckets {
		fmt.Fprint(w, p.Sprintf("%d\t%d\t%d-%d\t%d\t\n", row.Order, row.Size, row.Min, row.Max, row.Bytes))
	}
	if err := w.Flush(); err != nil {
		return err
	}
	printInfo("Lengths above %s are allocated unbucketed and not recycled.\n",
		p.Sprintf("%d", table.Buckets[len(table.Buckets)-1].Max))
	return nil
}

// resolveScale builds the scale from --preset or from --scale/--step/--max.
func resolveScale() (alloc.Scale, int, error) {
	if bucketsPreset != "" {
		cfg, ok := alloc.Configs[bucketsPreset]
		if !ok {
			return alloc.Scale{}, 0, fmt.Errorf("unknown preset %q (want one of %s)",
				bucketsPreset, strings.Join(presetNames(), ", "))
		}
		return cfg.Scale(), cfg.MaxBuckets, nil
	}
	if bucketsMax <= 0 {
		return alloc.Scale{}, 0, fmt.Errorf("--max must be positive, got %d", bucketsMax)
	}
	switch bucketsScale {
	case "log2":
		if bucketsMax > 62 {
			return alloc.Scale{}, 0, fmt.Errorf("--max must be at most 62 for log2, got %d", bucketsMax)
		}
		return alloc.Log2(), bucketsMax, nil
	case "linear":
		if bucketsStep <= 0 {
			return alloc.Scale{}, 0, fmt.Errorf("--step must be positive, got %d", bucketsStep)
		}
		return alloc.Linear(bucketsStep), bucketsMax, nil
	default:
		return alloc.Scale{}, 0, fmt.Errorf("unknown scale %q (want linear or log2)", bucketsScale)
	}
}

func presetNames() []string {
	names := make([]string, 0, len(alloc.Configs))
	for name := range alloc.Configs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
