package main

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/mantonx/mediacatalog/internal/modules/databasemodule"
	"github.com/mantonx/mediacatalog/internal/modules/lookupmodule"
	"github.com/spf13/cobra"
)

var mergeCmd = &cobra.Command{
	Use:   "merge [kind] [source-id] [target-id]",
	Short: "Fold a duplicate actor, director or tag into another",
	Long: `Repoints every series and season credit of the source to the target,
drops credits the target already has and deletes the source.
Kind is one of: ` + strings.Join(mergeKindNames(), ", "),
	Args: cobra.ExactArgs(3),
	RunE: runMerge,
}

func mergeKindNames() []string {
	names := make([]string, 0, len(lookupmodule.MergeKinds))
	for name := range lookupmodule.MergeKinds {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// parseMergeArgs validates the positional arguments of merge
func parseMergeArgs(args []string) (lookupmodule.Kind, uint, uint, error) {
	kind, ok := lookupmodule.MergeKinds[args[0]]
	if !ok {
		return lookupmodule.Kind{}, 0, 0, fmt.Errorf("unknown kind %q, expected one of %s", args[0], strings.Join(mergeKindNames(), ", "))
	}
	ids := make([]uint, 2)
	for i, raw := range args[1:] {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil || id == 0 {
			return lookupmodule.Kind{}, 0, 0, fmt.Errorf("%q is not a valid id", raw)
		}
		ids[i] = uint(id)
	}
	return kind, ids[0], ids[1], nil
}

func runMerge(cmd *cobra.Command, args []string) error {
	kind, sourceID, targetID, err := parseMergeArgs(args)
	if err != nil {
		return err
	}

	db, err := openDatabase()
	if err != nil {
		return err
	}

	merger := lookupmodule.NewMerger(databasemodule.NewTransactionManager(db))
	result, err := merger.Merge(cmd.Context(), kind, sourceID, targetID)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "merged %s %d into %d: %d moved, %d discarded\n",
		kind.Resource, sourceID, result.TargetID, result.Moved, result.Discarded)
	return nil
}
