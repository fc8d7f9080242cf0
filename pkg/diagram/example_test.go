package diagram_test

import (
	"fmt"

	"github.com/matzehuels/interflow/pkg/diagram"
	"github.com/matzehuels/interflow/pkg/model"
)

func ExampleBuild() {
	records := []model.InterfaceRecord{{
		CodeID:    "1",
		Direction: model.Outbound,
		Apps: []model.AppEntry{
			{Type: model.AppTypeSource, Name: "SAP", Format: "IDoc"},
			{Type: model.AppTypeMiddleware, Name: "MW1", Connection: &model.Connection{TargetApp: "SAP"}},
		},
	}}

	doc, err := diagram.Build(records, diagram.Options{})
	if err != nil {
		panic(err)
	}
	for _, c := range doc.Vertices() {
		fmt.Println("vertex", c.ID)
	}
	for _, e := range doc.Edges() {
		fmt.Println("edge", e.ID, e.Source, "->", e.Target)
	}
	// Output:
	// vertex SAP
	// vertex out_SAP_0
	// vertex MW1
	// vertex out_MW1_0
	// vertex in_MW1_0
	// edge conn_SAP_MW1_0 out_SAP_0 -> in_MW1_0
}
