package engine

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/RealZimboGuy/taskflow/pkg/taskflow/domain"
)

const (
	startClass    = "fill:#5568FE,stroke:#3346FF,stroke-width:2px,color:#fff,rx:10,ry:10;"
	terminalClass = "fill:#4ECDC4,stroke:#1F9C8C,stroke-width:2px,color:#fff,rx:10,ry:10;"
	normalClass   = "fill:#F0F4F8,stroke:#B0C4DE,stroke-width:1px,color:#333,rx:10,ry:10;"
)

// BuildFlowChart renders the workflow's stage graph as a Mermaid flowchart.
// Nodes are named s0, s1, ... in display order and labelled with the stage
// name. The first stage is styled as the start and stages without outgoing
// edges as terminal.
func BuildFlowChart(wf *domain.Workflow) string {
	var sb strings.Builder
	sb.WriteString("flowchart TD\n")
	if wf == nil || len(wf.Stages) == 0 {
		return sb.String()
	}

	nodes := make(map[string]string, len(wf.Stages))
	for i, st := range wf.Stages {
		nodes[st.ID] = "s" + strconv.Itoa(i)
		fmt.Fprintf(&sb, "    %s[\"%s\"]\n", nodes[st.ID], mermaidLabel(st.Name))
	}
	for _, st := range wf.Stages {
		for _, to := range wf.Transitions[st.ID] {
			if target, ok := nodes[to]; ok {
				fmt.Fprintf(&sb, "    %s --> %s\n", nodes[st.ID], target)
			}
		}
	}

	fmt.Fprintf(&sb, "    classDef startClass %s\n", startClass)
	fmt.Fprintf(&sb, "    classDef terminalClass %s\n", terminalClass)
	fmt.Fprintf(&sb, "    classDef normalClass %s\n", normalClass)

	for i, st := range wf.Stages {
		class := "normalClass"
		switch {
		case i == 0:
			class = "startClass"
		case len(wf.Transitions[st.ID]) == 0:
			class = "terminalClass"
		}
		fmt.Fprintf(&sb, "    class %s %s;\n", nodes[st.ID], class)
	}
	return sb.String()
}

var labelReplacer = strings.NewReplacer(`"`, "#quot;", "\n", " ")

func mermaidLabel(name string) string {
	return labelReplacer.Replace(name)
}
