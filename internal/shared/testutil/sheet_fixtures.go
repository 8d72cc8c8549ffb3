package testutil

// ProjectSheetHeader is the header row of the project tracking sheet. Column
// F (index 5) holds the raw project type and column Q (index 16) the
// presentation link.
var ProjectSheetHeader = []string{
	"Cliente", "Marca", "PUNTO VENTA", "PROJECT", "Status",
	"Tipo de proyecto", "Previos", "Diseño", "Produccion", "Ejecución",
	"Fin", "Previsión facturación", "Costes asociados a proyecto", "Coste estructura", "Observaciones",
	"Notas internas", "Presentación",
}

// ProjectSheetRows returns a small sheet, header first, with a mix of
// statuses, people and clients. Dates are relative to any year because the
// sheet never carries one.
func ProjectSheetRows() [][]string {
	return [][]string{
		ProjectSheetHeader,
		{"ACME", "Acme Home", "Madrid Centro", "Ana García", "En curso",
			"Retail", "10-ene", "20-ene", "01-feb", "15-feb",
			"28-feb", "12.000,00 €", "6.000,00 €", "1.200,00 €", "",
			"", "https://docs.google.com/presentation/d/acme"},
		{"Beta Foods", "Beta", "Barcelona", "Luis Pérez", "completado",
			"Evento", "01-ene", "05-ene", "10-ene", "12-ene",
			"15-ene", "4.000,00 €", "3.500,00 €", "400,00 €", "incidencia con proveedor"},
		{"ACME", "Acme Pro", "Valencia", "", "pendiente",
			"", "", "", "", "",
			"", "", "", "", ""},
	}
}

// ProjectSheetValues returns ProjectSheetRows in the Sheets API value shape.
func ProjectSheetValues() [][]interface{} {
	rows := ProjectSheetRows()
	values := make([][]interface{}, len(rows))
	for i, row := range rows {
		values[i] = make([]interface{}, len(row))
		for j, cell := range row {
			values[i][j] = cell
		}
	}
	return values
}
