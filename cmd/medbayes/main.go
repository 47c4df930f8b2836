// Command medbayes validates, queries and exports Bayesian network definitions
// from the command line.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/Gianlz/MedBayes/internal/bayes"
	"github.com/Gianlz/MedBayes/internal/buildconfig"
	"github.com/Gianlz/MedBayes/internal/domain"
	"github.com/Gianlz/MedBayes/internal/network"
	"github.com/Gianlz/MedBayes/internal/service"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "medbayes",
		Short: "Discrete Bayesian network inference",
		Long: `medbayes answers posterior queries on discrete Bayesian networks
by variable elimination. Without --network it uses the built-in
disease/season/symptom diagnosis network.`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "medbayes %s (%s)\n", buildconfig.Version(), buildconfig.Commit())
		},
	})

	validateCmd := &cobra.Command{
		Use:   "validate [file]",
		Short: "Parse and validate a network definition",
		Args:  cobra.ExactArgs(1),
		RunE:  runValidate,
	}
	validateCmd.Flags().StringSlice("joint", nil, "Full assignment as Variable=State (repeatable); prints its joint probability")
	rootCmd.AddCommand(validateCmd)

	queryCmd := &cobra.Command{
		Use:   "query",
		Short: "Compute a posterior distribution",
		RunE:  runQuery,
	}
	queryCmd.Flags().String("network", "", "Network YAML file (default: built-in diagnosis network)")
	queryCmd.Flags().StringSlice("var", nil, "Query variable (repeatable)")
	queryCmd.Flags().StringSlice("evidence", nil, "Observation as Variable=State (repeatable)")
	queryCmd.Flags().String("ordering", bayes.MinDegree.String(), "Elimination ordering: min-degree, min-degree-reverse-tie or declaration")
	_ = queryCmd.MarkFlagRequired("var")
	rootCmd.AddCommand(queryCmd)

	diagnoseCmd := &cobra.Command{
		Use:   "diagnose",
		Short: "Answer the symptom form against the diagnosis network",
		RunE:  runDiagnose,
	}
	diagnoseCmd.Flags().String("fever", "", "Fever (Yes/No)")
	diagnoseCmd.Flags().String("cough", "", "Cough (Yes/No)")
	diagnoseCmd.Flags().String("sneezing", "", "Sneezing (Yes/No)")
	diagnoseCmd.Flags().String("season", "", "Season (Winter/Spring/Summer/Autumn)")
	diagnoseCmd.Flags().Float64("threshold", domain.DefaultHighRiskThreshold, "High risk threshold")
	rootCmd.AddCommand(diagnoseCmd)

	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Write a network definition as YAML",
		RunE:  runExport,
	}
	exportCmd.Flags().String("network", "", "Network YAML file (default: built-in diagnosis network)")
	exportCmd.Flags().StringP("output", "o", "", "Output file (default: stdout)")
	rootCmd.AddCommand(exportCmd)

	return rootCmd
}

func runValidate(cmd *cobra.Command, args []string) error {
	n, err := network.LoadFile(args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "network %q is valid\n", n.Name)
	fmt.Fprintf(out, "topological order: %s\n", strings.Join(n.Model().TopologicalOrder(), " -> "))

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "VARIABLE\tSTATES\tPARENTS")
	for _, v := range n.Model().Variables() {
		states, _ := n.States(v.Name)
		parents, _ := n.Model().Parents(v.Name)
		fmt.Fprintf(tw, "%s\t%s\t%s\n", v.Name, strings.Join(states, ","), strings.Join(parents, ","))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	rawJoint, _ := cmd.Flags().GetStringSlice("joint")
	if len(rawJoint) == 0 {
		return nil
	}
	labels, err := parseEvidence(rawJoint)
	if err != nil {
		return err
	}
	assignment, err := n.EncodeEvidence(labels)
	if err != nil {
		return err
	}
	p, err := n.Model().JointProbability(assignment)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "joint probability: %.6f\n", p)
	return nil
}

func runQuery(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("network")
	variables, _ := cmd.Flags().GetStringSlice("var")
	rawEvidence, _ := cmd.Flags().GetStringSlice("evidence")
	orderingName, _ := cmd.Flags().GetString("ordering")

	n, err := loadNetwork(path)
	if err != nil {
		return err
	}
	ordering, err := parseOrdering(orderingName)
	if err != nil {
		return err
	}
	evidence, err := parseEvidence(rawEvidence)
	if err != nil {
		return err
	}
	codes, err := n.EncodeEvidence(evidence)
	if err != nil {
		return err
	}

	engine, err := bayes.NewEngine(n.Model(), bayes.WithOrdering(ordering))
	if err != nil {
		return err
	}
	d, err := engine.Query(variables, codes)
	if err != nil {
		return err
	}

	return printDistribution(cmd.OutOrStdout(), n, d)
}

func runDiagnose(cmd *cobra.Command, args []string) error {
	var symptoms domain.Symptoms
	symptoms.Fever, _ = cmd.Flags().GetString("fever")
	symptoms.Cough, _ = cmd.Flags().GetString("cough")
	symptoms.Sneezing, _ = cmd.Flags().GetString("sneezing")
	symptoms.Season, _ = cmd.Flags().GetString("season")
	threshold, _ := cmd.Flags().GetFloat64("threshold")

	n, err := network.Diagnosis()
	if err != nil {
		return err
	}
	svc := service.NewDiagnosisService(n, zap.NewNop())
	svc.SetHighRiskThreshold(threshold)

	d, err := svc.Diagnose(context.Background(), symptoms)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DISEASE\tPROBABILITY\tRISK")
	for _, p := range d.Probabilities {
		fmt.Fprintf(tw, "%s\t%.2f%%\t%s\n", p.Disease, p.Probability*100, p.Risk)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(out, "most likely: %s\n", d.MostLikely)
	return nil
}

func runExport(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("network")
	output, _ := cmd.Flags().GetString("output")

	n, err := loadNetwork(path)
	if err != nil {
		return err
	}

	if output == "" {
		return network.Export(n, cmd.OutOrStdout())
	}
	f, err := os.Create(output)
	if err != nil {
		return err
	}
	if err := network.Export(n, f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func loadNetwork(path string) (*network.Network, error) {
	if path == "" {
		return network.Diagnosis()
	}
	return network.LoadFile(path)
}

func parseOrdering(name string) (bayes.Ordering, error) {
	for _, o := range []bayes.Ordering{bayes.MinDegree, bayes.MinDegreeReverseTie, bayes.DeclarationOrder} {
		if o.String() == name {
			return o, nil
		}
	}
	return 0, fmt.Errorf("unknown ordering %q", name)
}

// parseEvidence turns Variable=State pairs into an evidence map.
func parseEvidence(pairs []string) (map[string]string, error) {
	evidence := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		variable, state, ok := strings.Cut(pair, "=")
		variable, state = strings.TrimSpace(variable), strings.TrimSpace(state)
		if !ok || variable == "" || state == "" {
			return nil, fmt.Errorf("evidence %q must be Variable=State", pair)
		}
		if prev, dup := evidence[variable]; dup && !strings.EqualFold(prev, state) {
			return nil, fmt.Errorf("%w: %s observed as both %q and %q", bayes.ErrConflictingEvidence, variable, prev, state)
		}
		evidence[variable] = state
	}
	return evidence, nil
}

func printDistribution(out io.Writer, n *network.Network, d *bayes.Distribution) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)

	header := make([]string, 0, len(d.Variables)+1)
	for _, v := range d.Variables {
		header = append(header, strings.ToUpper(v.Name))
	}
	fmt.Fprintln(tw, strings.Join(append(header, "P"), "\t"))

	for _, e := range d.Entries() {
		row := make([]string, 0, len(e.Assignment)+1)
		for i, code := range e.Assignment {
			label, err := n.Decode(d.Variables[i].Name, code)
			if err != nil {
				return err
			}
			row = append(row, label)
		}
		row = append(row, fmt.Sprintf("%.6f", e.Probability))
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	return tw.Flush()
}
