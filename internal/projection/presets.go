package projection

// ServiceType names a category of upstream data used to pick a field preset.
type ServiceType string

const (
	BidAnnouncement  ServiceType = "bid_announcement"
	SuccessfulBid    ServiceType = "successful_bid"
	ContractInfo     ServiceType = "contract_info"
	ProcurementStats ServiceType = "procurement_stats"
	ProductList      ServiceType = "product_list"
	ShoppingMall     ServiceType = "shopping_mall"
)

// Format is the requested verbosity of a projected response.
type Format string

const (
	FormatFull      Format = "full"
	FormatSummary   Format = "summary"
	FormatMinimal   Format = "minimal"
	FormatKeyFields Format = "key_fields"
)

// presetFormats is the order formats are reported in.
var presetFormats = []Format{FormatMinimal, FormatSummary, FormatKeyFields}

var serviceTypes = []ServiceType{
	BidAnnouncement,
	SuccessfulBid,
	ContractInfo,
	ProcurementStats,
	ProductList,
	ShoppingMall,
}

// presets is read-only after package init.
var presets = map[ServiceType]map[Format][]string{
	BidAnnouncement: {
		FormatMinimal: {"bidNtceNo", "bidNtceNm", "ntceInsttNm"},
		FormatSummary: {"bidNtceNo", "bidNtceNm", "ntceInsttNm", "bidNtceDt", "bidClseDt", "presmptPrce"},
		FormatKeyFields: {"bidNtceNo", "bidNtceNm", "ntceInsttNm", "dminsttNm", "bidNtceDt",
			"bidClseDt", "opengDt", "presmptPrce", "rgstDt", "bfSpecRgstNo"},
	},
	SuccessfulBid: {
		FormatMinimal: {"bidNtceNo", "bidNtceNm", "sucsfbidCorpNm"},
		FormatSummary: {"bidNtceNo", "bidNtceNm", "sucsfbidCorpNm", "cntrctCnclsAmt", "sucsfbidMthd"},
		FormatKeyFields: {"bidNtceNo", "bidNtceNm", "ntceInsttNm", "dminsttNm", "sucsfbidCorpNm",
			"cntrctCnclsAmt", "sucsfbidMthd", "cntrctCnclsDe", "presmptPrce"},
	},
	ContractInfo: {
		FormatMinimal: {"cntrctNo", "cntrctNm", "cntrctorCorpNm"},
		FormatSummary: {"cntrctNo", "cntrctNm", "cntrctorCorpNm", "cntrctAmt", "cntrctCnclsDe"},
		FormatKeyFields: {"cntrctNo", "cntrctNm", "cntrctorCorpNm", "cntrctAmt", "cntrctCnclsDe",
			"dminsttNm", "cntrctMthd", "bidNtceNo", "rgstDt"},
	},
	ProcurementStats: {
		FormatMinimal: {"baseYear", "totlPrcrmntAmt", "entryCount"},
		FormatSummary: {"baseYear", "totlPrcrmntAmt", "entryCount", "instituteNm", "prcrmntDiv"},
		FormatKeyFields: {"baseYear", "totlPrcrmntAmt", "entryCount", "instituteNm", "prcrmntDiv",
			"cntrctMthd", "rgn", "industryNm"},
	},
	ProductList: {
		FormatMinimal: {"prdctClsfcNo", "prdctClsfcNoNm", "prdctStdrNm"},
		FormatSummary: {"prdctClsfcNo", "prdctClsfcNoNm", "prdctStdrNm", "prdctStdrUnit", "rgstDt"},
		FormatKeyFields: {"prdctClsfcNo", "prdctClsfcNoNm", "prdctStdrNm", "prdctStdrUnit",
			"rgstDt", "mdfcnDt", "delYn", "rmrk"},
	},
	ShoppingMall: {
		FormatMinimal: {"prdctIdntNo", "prdctIdntNoNm", "cntrctCorpNm"},
		FormatSummary: {"prdctIdntNo", "prdctIdntNoNm", "cntrctCorpNm", "dlvrPrce", "prdctClsfcNoNm"},
		FormatKeyFields: {"prdctIdntNo", "prdctIdntNoNm", "cntrctCorpNm", "dlvrPrce", "prdctClsfcNoNm",
			"rgstDt", "masYn", "exclcProdctYn", "regtCncelYn"},
	},
}

var formatDescriptions = map[Format]string{
	FormatFull:      "full response, unchanged",
	FormatKeyFields: "key fields only, tuned for analysis",
	FormatSummary:   "summary: main identifiers plus key values",
	FormatMinimal:   "minimal: base identifiers only",
}

// ServiceTypes returns the registered service types in registration order.
func ServiceTypes() []ServiceType {
	out := make([]ServiceType, len(serviceTypes))
	copy(out, serviceTypes)
	return out
}

// IsServiceType reports whether s names a registered service type.
func IsServiceType(s string) bool {
	_, ok := presets[ServiceType(s)]
	return ok
}

// Preset returns a copy of the field list registered for (st, f).
func Preset(st ServiceType, f Format) ([]string, bool) {
	byFormat, ok := presets[st]
	if !ok {
		return nil, false
	}
	fields, ok := byFormat[f]
	if !ok {
		return nil, false
	}
	out := make([]string, len(fields))
	copy(out, fields)
	return out, true
}

// FieldInfo describes the presets of one service type. For an unknown
// service type only Error and AvailableTypes are set.
type FieldInfo struct {
	ServiceType     string              `json:"service_type,omitempty"`
	ResponseFormats []string            `json:"response_formats,omitempty"`
	FieldDetails    map[string][]string `json:"field_details,omitempty"`

	Error          string   `json:"error,omitempty"`
	AvailableTypes []string `json:"available_types,omitempty"`
}

// AvailableFields reports the formats and field lists registered for
// serviceType. It never fails: an unknown type yields an error value.
func AvailableFields(serviceType string) FieldInfo {
	st := ServiceType(serviceType)
	if _, ok := presets[st]; !ok {
		types := make([]string, 0, len(serviceTypes))
		for _, t := range serviceTypes {
			types = append(types, string(t))
		}
		return FieldInfo{
			Error:          "Unknown service_type: " + serviceType,
			AvailableTypes: types,
		}
	}

	info := FieldInfo{
		ServiceType:  serviceType,
		FieldDetails: make(map[string][]string, len(presetFormats)),
	}
	for _, f := range presetFormats {
		fields, ok := Preset(st, f)
		if !ok {
			continue
		}
		info.ResponseFormats = append(info.ResponseFormats, string(f))
		info.FieldDetails[string(f)] = fields
	}
	return info
}

// ServiceFormats summarises the presets of one service type.
type ServiceFormats struct {
	AvailableFormats []string       `json:"available_formats"`
	FieldCounts      map[string]int `json:"field_counts"`
}

// FormatsOverview lists every response format and, per service type, the
// formats available and how many fields each keeps.
type FormatsOverview struct {
	ResponseFormats map[string]string         `json:"response_formats"`
	Services        map[string]ServiceFormats `json:"services"`
}

// AllFormats returns the overview of every registered preset.
func AllFormats() FormatsOverview {
	out := FormatsOverview{
		ResponseFormats: make(map[string]string, len(formatDescriptions)),
		Services:        make(map[string]ServiceFormats, len(serviceTypes)),
	}
	for f, desc := range formatDescriptions {
		out.ResponseFormats[string(f)] = desc
	}
	for _, st := range serviceTypes {
		sf := ServiceFormats{FieldCounts: make(map[string]int, len(presetFormats))}
		for _, f := range presetFormats {
			fields, ok := presets[st][f]
			if !ok {
				continue
			}
			sf.AvailableFormats = append(sf.AvailableFormats, string(f))
			sf.FieldCounts[string(f)] = len(fields)
		}
		out.Services[string(st)] = sf
	}
	return out
}
