package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"github.com/JonMunkholm/inspections/internal/core"
)

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

func vehicleTable(rows []core.VehicleRow) func(io.Writer) error {
	return func(w io.Writer) error {
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tDOOR\tPLATE\tDIVISION\tSIZE\tLAST INSPECTION\tSTATUS")
		for _, r := range rows {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
				r.ID, r.DoorNo, r.PlateNo, r.DivisionUnit(), r.VehicleSize.Label(), r.LastInspectionDate, r.LastStatus)
		}
		return tw.Flush()
	}
}

func historyTable(inspections []core.Inspection) func(io.Writer) error {
	return func(w io.Writer) error {
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "INSPECTION\tDATE\tINSPECTOR\tISSUES\tSTATUS")
		for _, in := range inspections {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n",
				in.InspectionID, in.InspectionDate, in.InspectorName, in.IssuesFound, in.OverallStatus)
		}
		return tw.Flush()
	}
}
