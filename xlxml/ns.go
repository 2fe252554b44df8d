// Package xlxml holds the XML plumbing shared by every SpreadsheetML part:
// the namespace vocabulary, a pull-style event reader and the writer setup.
package xlxml

// Namespace URIs emitted on the root element of the parts that use them.
const (
	NsMain          = "http://schemas.openxmlformats.org/spreadsheetml/2006/main"
	NsRelationships = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"
	NsPackageRels   = "http://schemas.openxmlformats.org/package/2006/relationships"
	NsContentTypes  = "http://schemas.openxmlformats.org/package/2006/content-types"
	NsDrawing       = "http://schemas.openxmlformats.org/drawingml/2006/main"
	NsSheetDrawing  = "http://schemas.openxmlformats.org/drawingml/2006/spreadsheetDrawing"
	NsChart         = "http://schemas.openxmlformats.org/drawingml/2006/chart"
	NsMC            = "http://schemas.openxmlformats.org/markup-compatibility/2006"
	NsX14ac         = "http://schemas.microsoft.com/office/spreadsheetml/2009/9/ac"
	NsX14           = "http://schemas.microsoft.com/office/spreadsheetml/2009/9/main"
	NsXr            = "http://schemas.microsoft.com/office/spreadsheetml/2014/revision"
	NsX15           = "http://schemas.microsoft.com/office/spreadsheetml/2010/11/main"
	NsCoreProps     = "http://schemas.openxmlformats.org/package/2006/metadata/core-properties"
	NsExtProps      = "http://schemas.openxmlformats.org/officeDocument/2006/extended-properties"
	NsCustomProps   = "http://schemas.openxmlformats.org/officeDocument/2006/custom-properties"
	NsVTypes        = "http://schemas.openxmlformats.org/officeDocument/2006/docPropsVTypes"
	NsDC            = "http://purl.org/dc/elements/1.1/"
	NsDCTerms       = "http://purl.org/dc/terms/"
	NsDCMIType      = "http://purl.org/dc/dcmitype/"
	NsXSI           = "http://www.w3.org/2001/XMLSchema-instance"
	NsVML           = "urn:schemas-microsoft-com:vml"
	NsOffice        = "urn:schemas-microsoft-com:office:office"
	NsExcel         = "urn:schemas-microsoft-com:office:excel"
	NsEncryption    = "http://schemas.microsoft.com/office/2006/encryption"
	NsPassword      = "http://schemas.microsoft.com/office/2006/keyEncryptor/password"
	NsXML           = "http://www.w3.org/XML/1998/namespace"
	NsRichData      = "http://schemas.microsoft.com/office/spreadsheetml/2017/richdata"
	NsRichValueRel  = "http://schemas.microsoft.com/office/spreadsheetml/2022/richvaluerel"
)

// Relationship type URIs.
const (
	RelOfficeDocument = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument"
	RelCoreProps      = "http://schemas.openxmlformats.org/package/2006/relationships/metadata/core-properties"
	RelExtProps       = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/extended-properties"
	RelCustomProps    = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/custom-properties"
	RelWorksheet      = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/worksheet"
	RelChartsheet     = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/chartsheet"
	RelDialogsheet    = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/dialogsheet"
	RelMacrosheet     = "http://schemas.microsoft.com/office/2006/relationships/xlMacrosheet"
	RelStyles         = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/styles"
	RelSharedStrings  = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/sharedStrings"
	RelTheme          = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/theme"
	RelDrawing        = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/drawing"
	RelVMLDrawing     = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/vmlDrawing"
	RelImage          = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/image"
	RelChart          = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/chart"
	RelHyperlink      = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/hyperlink"
	RelComments       = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/comments"
	RelTable          = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/table"
	RelPivotTable     = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/pivotTable"
	RelPivotCache     = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/pivotCacheDefinition"
	RelPivotRecords   = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/pivotCacheRecords"
	RelOleObject      = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/oleObject"
	RelPackage        = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/package"
	RelPrinterSetting = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/printerSettings"
	RelVBAProject     = "http://schemas.microsoft.com/office/2006/relationships/vbaProject"
	RelSheetMetadata  = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/sheetMetadata"
	RelCalcChain      = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/calcChain"
	RelRichValueRel   = "http://schemas.microsoft.com/office/2022/10/relationships/richValueRel"
	RelRichStructure  = "http://schemas.microsoft.com/office/2017/06/relationships/rdRichValueStructure"
	RelRichValue      = "http://schemas.microsoft.com/office/2017/06/relationships/rdRichValue"
	RelRichTypes      = "http://schemas.microsoft.com/office/2017/06/relationships/rdRichValueTypes"
)

// Content types for the parts this module emits.
const (
	TypeRels          = "application/vnd.openxmlformats-package.relationships+xml"
	TypeXML           = "application/xml"
	TypeWorkbook      = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet.main+xml"
	TypeWorkbookMacro = "application/vnd.ms-excel.sheet.macroEnabled.main+xml"
	TypeWorksheet     = "application/vnd.openxmlformats-officedocument.spreadsheetml.worksheet+xml"
	TypeStyles        = "application/vnd.openxmlformats-officedocument.spreadsheetml.styles+xml"
	TypeSharedStrings = "application/vnd.openxmlformats-officedocument.spreadsheetml.sharedStrings+xml"
	TypeTheme         = "application/vnd.openxmlformats-officedocument.theme+xml"
	TypeDrawing       = "application/vnd.openxmlformats-officedocument.drawing+xml"
	TypeVMLDrawing    = "application/vnd.openxmlformats-officedocument.vmlDrawing"
	TypeChart         = "application/vnd.openxmlformats-officedocument.drawingml.chart+xml"
	TypeComments      = "application/vnd.openxmlformats-officedocument.spreadsheetml.comments+xml"
	TypeTable         = "application/vnd.openxmlformats-officedocument.spreadsheetml.table+xml"
	TypePivotTable    = "application/vnd.openxmlformats-officedocument.spreadsheetml.pivotTable+xml"
	TypePivotCache    = "application/vnd.openxmlformats-officedocument.spreadsheetml.pivotCacheDefinition+xml"
	TypePivotRecords  = "application/vnd.openxmlformats-officedocument.spreadsheetml.pivotCacheRecords+xml"
	TypeCoreProps     = "application/vnd.openxmlformats-package.core-properties+xml"
	TypeExtProps      = "application/vnd.openxmlformats-officedocument.extended-properties+xml"
	TypeCustomProps   = "application/vnd.openxmlformats-officedocument.custom-properties+xml"
	TypeVBAProject    = "application/vnd.ms-office.vbaProject"
	TypeOleObject     = "application/vnd.openxmlformats-officedocument.oleObject"
	TypePrinter       = "application/vnd.openxmlformats-officedocument.spreadsheetml.printerSettings"
	TypeSheetMetadata = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheetMetadata+xml"
	TypeRichValueRel  = "application/vnd.ms-excel.richvaluerel+xml"
	TypeRichStructure = "application/vnd.ms-excel.rdrichvaluestructure+xml"
	TypeRichValue     = "application/vnd.ms-excel.rdrichvalue+xml"
)
