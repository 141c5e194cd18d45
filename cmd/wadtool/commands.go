package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/png"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/opencontainers/go-digest"
	"github.com/spf13/cobra"

	"github.com/stuarthighley/wad/v2"
)

func newListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list FILE...",
		Short: "List the entries of each file",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.eachFile(cmd.Context(), cmd.OutOrStdout(), args, a.list)
		},
	}
}

func (a *app) list(_ context.Context, path string) (string, error) {
	arc, err := wad.OpenFile(path, a.options()...)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	tw := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tNAME\tSIZE\tTYPE\tNAMESPACE\tMAP")
	for i, e := range arc.Entries() {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%s\t%s\t%s\n",
			i, e.Name(), e.Size(), e.TypeID(), arc.DetectNamespace(i), e.MapFormat())
	}
	if err := tw.Flush(); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func newMapsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "maps FILE...",
		Short: "List the maps of each file",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.eachFile(cmd.Context(), cmd.OutOrStdout(), args, a.maps)
		},
	}
}

func (a *app) maps(_ context.Context, path string) (string, error) {
	arc, err := wad.OpenFile(path, a.options()...)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	tw := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "MAP\tFORMAT\tLUMPS\tTHINGS\tLINES\tSECTORS\tBOUNDS")
	for _, md := range arc.Maps() {
		lumps := fmt.Sprintf("%d-%d", arc.Index(md.Head), arc.Index(md.End))
		if md.Archive {
			lumps = fmt.Sprintf("%s (wad)", md.Head.Name())
		}
		s, err := arc.MapSummary(md)
		switch {
		case errors.Is(err, wad.ErrUnsupportedMap):
			fmt.Fprintf(tw, "%s\t%s\t%s\t-\t-\t-\t-\n", md.Name, md.Format, lumps)
		case err != nil:
			a.log.Warn().Err(err).Str("file", path).Str("map", md.Name).Msg("Unreadable map")
			fmt.Fprintf(tw, "%s\t%s\t%s\t?\t?\t?\t?\n", md.Name, md.Format, lumps)
		default:
			b := s.Bounds
			fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%d\t(%g,%g)-(%g,%g)\n",
				md.Name, md.Format, lumps, s.Things, s.Linedefs, s.Sectors, b.Left, b.Bottom, b.Right, b.Top)
		}
	}
	if err := tw.Flush(); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func newNamespacesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "namespaces FILE...",
		Short: "List the marker namespaces of each file",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.eachFile(cmd.Context(), cmd.OutOrStdout(), args, a.namespaces)
		},
	}
}

func (a *app) namespaces(_ context.Context, path string) (string, error) {
	arc, err := wad.OpenFile(path, a.options()...)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	tw := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAMESPACE\tSTART\tEND\tENTRIES")
	for _, ns := range arc.Namespaces() {
		start := ns.Start.Name()
		if ns.FlatHack {
			start += "*"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n", ns.Name, start, ns.End.Name(), ns.EndIndex-ns.StartIndex-1)
	}
	if err := tw.Flush(); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func newVerifyCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "verify FILE...",
		Short: "Check that each file survives a write and re-read unchanged",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.eachFile(cmd.Context(), cmd.OutOrStdout(), args, a.verify)
		},
	}
}

type fingerprint struct {
	name   string
	size   int
	digest digest.Digest
}

func fingerprints(arc *wad.Archive) ([]fingerprint, error) {
	out := make([]fingerprint, arc.NumEntries())
	for i, e := range arc.Entries() {
		d, err := e.Digest()
		if err != nil {
			return nil, fmt.Errorf("entry %d %s: %w", i, e.Name(), err)
		}
		out[i] = fingerprint{e.Name(), e.Size(), d}
	}
	return out, nil
}

// verify writes the archive to memory, reopens the image and compares every entry. Writing
// the reopened archive again must give the same bytes.
func (a *app) verify(_ context.Context, path string) (string, error) {
	opts := a.options(wad.WithIWADLock(false))
	arc, err := wad.OpenFile(path, opts...)
	if err != nil {
		return "", err
	}
	before, err := fingerprints(arc)
	if err != nil {
		return "", err
	}
	image, err := arc.Write()
	if err != nil {
		return "", err
	}
	re, err := wad.Open(image, opts...)
	if err != nil {
		return "", fmt.Errorf("reopen: %w", err)
	}
	after, err := fingerprints(re)
	if err != nil {
		return "", err
	}

	var problems []string
	if len(before) != len(after) {
		problems = append(problems, fmt.Sprintf("entry count %d became %d", len(before), len(after)))
	}
	for i := range min(len(before), len(after)) {
		if before[i] != after[i] {
			problems = append(problems, fmt.Sprintf("entry %d: %s/%d became %s/%d",
				i, before[i].name, before[i].size, after[i].name, after[i].size))
		}
	}
	again, err := re.Write()
	if err != nil {
		return "", err
	}
	if !bytes.Equal(image, again) {
		problems = append(problems, "second write differs from the first")
	}
	if len(problems) > 0 {
		return "", fmt.Errorf("%s: %s", path, strings.Join(problems, "; "))
	}
	return fmt.Sprintf("OK %d entries %s\n", len(after), digest.FromBytes(image)), nil
}

func newRepackCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "repack IN OUT",
		Short: "Rewrite a WAD with a clean directory and decrypted lumps",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			arc, err := wad.OpenFile(args[0], a.options()...)
			if err != nil {
				return err
			}
			if err := arc.Save(args[1]); err != nil {
				a.log.Error().Err(err).Str("file", args[1]).Msg("Failed to write")
				return err
			}
			a.log.Info().Str("from", args[0]).Str("to", args[1]).Int("entries", arc.NumEntries()).Msg("Repacked")
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d entries)\n", args[1], arc.NumEntries())
			return nil
		},
	}
}

func newExportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "export FILE LUMP OUT",
		Short: "Write a flat, patch or sprite as a PNG",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			arc, err := wad.OpenFile(args[0], a.options()...)
			if err != nil {
				return err
			}
			e := arc.FindLast(wad.SearchOptions{Name: args[1]})
			if e == nil {
				return fmt.Errorf("%s: no entry named %s", args[0], args[1])
			}
			pic, err := arc.Picture(e)
			if err != nil {
				return err
			}
			f, err := os.Create(args[2])
			if err != nil {
				return err
			}
			if err := png.Encode(f, pic); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			b := pic.Bounds()
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%dx%d, offset %d,%d)\n",
				args[2], b.Dx(), b.Dy(), pic.LeftOffset, pic.TopOffset)
			return nil
		},
	}
}
