// ABOUTME: Composition graph of experiment generators, their variable generators, and experiments
// ABOUTME: Renders DOT source through graphviz for the CLI and the TUI
package viz

import (
	"bytes"
	"context"
	"fmt"

	"github.com/goccy/go-graphviz"
	"github.com/goccy/go-graphviz/cgraph"

	"github.com/harperreed/outbound/campaign"
	"github.com/harperreed/outbound/models"
)

type GraphGenerator struct {
	engine *campaign.Engine
}

func NewGraphGenerator(engine *campaign.Engine) *GraphGenerator {
	return &GraphGenerator{engine: engine}
}

// GenerateCompositionGraph draws every experiment generator visible to owner
// (all owners when empty) with an edge per arm to the variable generator
// feeding it, and one node per experiment showing its success counters.
func (g *GraphGenerator) GenerateCompositionGraph(ctx context.Context, owner string) (string, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to create graphviz: %w", err)
	}
	defer gv.Close()

	graph, err := gv.Graph()
	if err != nil {
		return "", fmt.Errorf("failed to create graph: %w", err)
	}
	defer graph.Close()

	graph.SetLabel("Experiment Compositions")
	graph.SetRankDir(cgraph.LRRank)

	egs, err := g.engine.ListExperimentGenerators(ctx, owner, "")
	if err != nil {
		return "", err
	}

	vgNodes := make(map[int64]*cgraph.Node)
	vgNode := func(id int64) (*cgraph.Node, error) {
		if n, ok := vgNodes[id]; ok {
			return n, nil
		}
		n, err := graph.CreateNodeByName(fmt.Sprintf("vg_%d", id))
		if err != nil {
			return nil, fmt.Errorf("failed to create variable generator node: %w", err)
		}
		label := fmt.Sprintf("VG %d\n(missing)", id)
		if vg, err := g.engine.VariableGenerator(ctx, id); err == nil {
			label = fmt.Sprintf("VG %d v%d\n%s\n%s", vg.ID, vg.VersionID, vg.Phase, vg.Product)
		}
		n.SetLabel(label)
		n.SetShape("ellipse")
		n.SetStyle("filled")
		n.SetFillColor("lightgreen")
		vgNodes[id] = n
		return n, nil
	}

	for _, eg := range egs {
		egNode, err := graph.CreateNodeByName(fmt.Sprintf("eg_%d", eg.ID))
		if err != nil {
			return "", fmt.Errorf("failed to create experiment generator node: %w", err)
		}
		egNode.SetLabel(fmt.Sprintf("EG %d\n%s", eg.ID, eg.Platform))
		egNode.SetShape("box")
		egNode.SetStyle("filled")
		egNode.SetFillColor("lightblue")

		for i, vgID := range eg.VariableGeneratorIDs {
			n, err := vgNode(vgID)
			if err != nil {
				return "", err
			}
			edge, err := graph.CreateEdgeByName(fmt.Sprintf("arm_%d_%d", eg.ID, i+1), n, egNode)
			if err != nil {
				return "", fmt.Errorf("failed to create edge: %w", err)
			}
			edge.SetLabel(fmt.Sprintf("arm %d", i+1))
		}

		views, err := g.engine.GetExperiments(ctx, eg.OwnerEmail, []int64{eg.ID})
		if err != nil {
			return "", err
		}
		for _, v := range views {
			if err := addExperimentNode(graph, egNode, v.Experiment); err != nil {
				return "", err
			}
		}
	}

	var buf bytes.Buffer
	if err := gv.Render(ctx, graph, graphviz.XDOT, &buf); err != nil {
		return "", fmt.Errorf("failed to render graph: %w", err)
	}
	return buf.String(), nil
}

func addExperimentNode(graph *cgraph.Graph, egNode *cgraph.Node, exp models.Experiment) error {
	node, err := graph.CreateNodeByName(fmt.Sprintf("exp_%d_%d", exp.ExperimentGeneratorID, exp.ID))
	if err != nil {
		return fmt.Errorf("failed to create experiment node: %w", err)
	}
	node.SetLabel(fmt.Sprintf("Exp %d\n%d/%d", exp.ID, exp.Successes, exp.Trials))
	node.SetShape("diamond")
	node.SetStyle("filled")
	node.SetFillColor("lightyellow")

	edge, err := graph.CreateEdgeByName(fmt.Sprintf("draws_%d_%d", exp.ExperimentGeneratorID, exp.ID), egNode, node)
	if err != nil {
		return fmt.Errorf("failed to create edge: %w", err)
	}
	edge.SetStyle("dashed")
	return nil
}
