package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/odyssey-erp/storeledger/internal/app"
	"github.com/odyssey-erp/storeledger/internal/sequence"
)

func newNextIDCommand() *cobra.Command {
	return &cobra.Command{
		Use:       "next-id <invoice|customer_order|supplier_order>",
		Short:     "Show the identifier the next document would receive without claiming it",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{string(sequence.DocInvoice), string(sequence.DocCustomerOrder), string(sequence.DocSupplierOrder)},
		RunE:      runNextID,
	}
}

func runNextID(cmd *cobra.Command, args []string) error {
	doc, err := sequence.ParseDocType(args[0])
	if err != nil {
		return err
	}
	e, err := openEnv(cmd)
	if err != nil {
		return err
	}
	defer e.Close()
	services := app.NewServices(e.cfg, e.backend, app.ServiceDeps{Logger: e.logger})
	id, err := services.PreviewNextID(cmd.Context(), e.backend, doc)
	if err != nil {
		return err
	}
	fmt.Fprintln(out(cmd), id)
	return nil
}
