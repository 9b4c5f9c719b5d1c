package service

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/naramarket/naramarket-mcp/internal/model"
	"github.com/naramarket/naramarket-mcp/internal/projection"
)

// DateStyle is how a derived inquiry date range is written.
type DateStyle int

const (
	NoDates       DateStyle = iota
	DateTimeRange           // YYYYMMDD0000 .. YYYYMMDD2359
	DateRange               // YYYYMMDD .. YYYYMMDD
)

// ParamMapping maps a friendly argument name onto the upstream query key.
type ParamMapping struct {
	Arg      string
	Upstream string
}

// DateRule derives Begin/End from days_back when the inquiry division is one
// of InqryDivs. An empty InqryDivs applies the rule to every division.
type DateRule struct {
	Style     DateStyle
	Begin     string
	End       string
	InqryDivs []string
}

type Operation struct {
	Name        string
	Upstream    string
	Description string
}

// Service is one family of upstream list endpoints sharing a base path,
// parameters and a response preset.
type Service struct {
	Name            string
	Description     string
	ServiceType     projection.ServiceType
	BasePath        string
	Operations      []Operation
	Params          []ParamMapping
	DefaultRows     int
	DefaultDaysBack int

	// InqryDivs lists the accepted inquiry divisions. Nil means the service
	// takes no top-level inqryDiv.
	InqryDivs       []string
	DefaultInqryDiv string
	Dates           DateRule

	// Requires names the argument that must be set for a given inquiry
	// division.
	Requires map[string]string
}

// Operation looks up an operation by its friendly or upstream name.
func (s *Service) Operation(name string) (Operation, bool) {
	for _, op := range s.Operations {
		if op.Name == name || op.Upstream == name {
			return op, true
		}
	}
	return Operation{}, false
}

func (s *Service) upstreamKey(arg string) (string, bool) {
	for _, p := range s.Params {
		if p.Arg == arg || p.Upstream == arg {
			return p.Upstream, true
		}
	}
	if s.Dates.Style != NoDates && (arg == s.Dates.Begin || arg == s.Dates.End) {
		return arg, true
	}
	return "", false
}

func (s *Service) usesDates(inqryDiv string) bool {
	if s.Dates.Style == NoDates {
		return false
	}
	if len(s.Dates.InqryDivs) == 0 {
		return true
	}
	return contains(s.Dates.InqryDivs, inqryDiv)
}

// Info describes the service for catalog listings.
func (s *Service) Info() model.ServiceInfo {
	info := model.ServiceInfo{
		Name:             s.Name,
		Description:      s.Description,
		ResponseType:     string(s.ServiceType),
		DefaultNumOfRows: s.DefaultRows,
		InqryDivs:        s.InqryDivs,
	}
	for _, p := range s.Params {
		info.Parameters = append(info.Parameters, p.Arg)
	}
	for _, op := range s.Operations {
		info.Operations = append(info.Operations, model.OperationInfo{
			Name:        op.Name,
			Upstream:    op.Upstream,
			Description: op.Description,
		})
	}
	return info
}

// Call is a resolved list request: where to send it and with which
// parameters, excluding the service key.
type Call struct {
	Service   *Service
	Operation Operation
	Path      string
	Params    []Param
}

// Resolve validates req against the catalog and builds the upstream
// parameters. now anchors the derived date range.
func (s *Service) Resolve(req *model.DTOToolRequest, now time.Time) (*Call, error) {
	op, ok := s.Operation(req.Operation)
	if !ok {
		return nil, fmt.Errorf("%w: %q for %s", ErrUnknownOperation, req.Operation, s.Name)
	}

	rows := req.NumOfRows
	if rows <= 0 {
		rows = s.DefaultRows
	}
	page := req.PageNo
	if page <= 0 {
		page = 1
	}

	params := []Param{
		{Key: "numOfRows", Value: strconv.Itoa(rows)},
		{Key: "pageNo", Value: strconv.Itoa(page)},
		{Key: "type", Value: "json"},
	}

	args := map[string]string{}
	for k, v := range req.Params {
		if v = strings.TrimSpace(v); v == "" {
			continue
		}
		upstream, ok := s.upstreamKey(k)
		if !ok {
			return nil, fmt.Errorf("%w: unknown parameter %q for %s", ErrInvalidInput, k, s.Name)
		}
		args[upstream] = v
	}

	inqryDiv := ""
	if s.InqryDivs != nil {
		inqryDiv = req.InqryDiv
		if inqryDiv == "" {
			inqryDiv = s.DefaultInqryDiv
		}
		if inqryDiv == "" {
			return nil, fmt.Errorf("%w: inqry_div is required for %s (one of %s)",
				ErrInvalidInput, s.Name, strings.Join(s.InqryDivs, ", "))
		}
		if !contains(s.InqryDivs, inqryDiv) {
			return nil, fmt.Errorf("%w: inqry_div %q is not valid for %s (one of %s)",
				ErrInvalidInput, inqryDiv, s.Name, strings.Join(s.InqryDivs, ", "))
		}
		params = append(params, Param{Key: "inqryDiv", Value: inqryDiv})

		if arg, ok := s.Requires[inqryDiv]; ok {
			upstream, _ := s.upstreamKey(arg)
			if args[upstream] == "" {
				return nil, fmt.Errorf("%w: %s is required when inqry_div is %s", ErrInvalidInput, arg, inqryDiv)
			}
		}
	}

	if s.usesDates(inqryDiv) {
		daysBack := req.DaysBack
		if daysBack <= 0 {
			daysBack = s.DefaultDaysBack
		}
		begin, end := DateRangeFor(s.Dates.Style, daysBack, now)
		if args[s.Dates.Begin] == "" {
			args[s.Dates.Begin] = begin
		}
		if args[s.Dates.End] == "" {
			args[s.Dates.End] = end
		}
		params = append(params,
			Param{Key: s.Dates.Begin, Value: args[s.Dates.Begin]},
			Param{Key: s.Dates.End, Value: args[s.Dates.End]},
		)
		delete(args, s.Dates.Begin)
		delete(args, s.Dates.End)
	}

	// Catalog order keeps the query string stable for caching.
	for _, p := range s.Params {
		if v, ok := args[p.Upstream]; ok {
			params = append(params, Param{Key: p.Upstream, Value: v})
			delete(args, p.Upstream)
		}
	}
	leftover := make([]string, 0, len(args))
	for k := range args {
		leftover = append(leftover, k)
	}
	sort.Strings(leftover)
	for _, k := range leftover {
		params = append(params, Param{Key: k, Value: args[k]})
	}

	return &Call{
		Service:   s,
		Operation: op,
		Path:      s.BasePath + "/" + op.Upstream,
		Params:    params,
	}, nil
}

// DateRangeFor returns the inquiry window ending at now and starting
// daysBack days earlier.
func DateRangeFor(style DateStyle, daysBack int, now time.Time) (string, string) {
	start := now.AddDate(0, 0, -daysBack)
	switch style {
	case DateTimeRange:
		return start.Format("20060102") + "0000", now.Format("20060102") + "2359"
	case DateRange:
		return start.Format("20060102"), now.Format("20060102")
	}
	return "", ""
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

var bidParams = []ParamMapping{
	{"bid_ntce_nm", "bidNtceNm"},
	{"ntce_instt_cd", "ntceInsttCd"},
	{"ntce_instt_nm", "ntceInsttNm"},
	{"dminst_cd", "dminsttCd"},
	{"dminst_nm", "dminsttNm"},
	{"ref_no", "refNo"},
	{"prtcpt_lmt_rgn_cd", "prtcptLmtRgnCd"},
	{"prtcpt_lmt_rgn_nm", "prtcptLmtRgnNm"},
	{"indstryty_cd", "indstrytyCd"},
	{"indstryty_nm", "indstrytyNm"},
	{"presmpt_prce_bgn", "presmptPrceBgn"},
	{"presmpt_prce_end", "presmptPrceEnd"},
	{"dtil_prdct_clsfc_no", "dtilPrdctClsfcNo"},
	{"mas_yn", "masYn"},
	{"prcrmnt_req_no", "prcrmntReqNo"},
	{"bid_clse_excp_yn", "bidClseExcpYn"},
	{"intrntnl_div_cd", "intrntnlDivCd"},
}

var successfulBidParams = []ParamMapping{
	{"bid_ntce_no", "bidNtceNo"},
	{"bid_ntce_nm", "bidNtceNm"},
	{"ntce_instt_cd", "ntceInsttCd"},
	{"ntce_instt_nm", "ntceInsttNm"},
	{"dminst_cd", "dminsttCd"},
	{"dminst_nm", "dminsttNm"},
	{"ref_no", "refNo"},
	{"prtcpt_lmt_rgn_cd", "prtcptLmtRgnCd"},
	{"prtcpt_lmt_rgn_nm", "prtcptLmtRgnNm"},
	{"indstryty_cd", "indstrytyCd"},
	{"indstryty_nm", "indstrytyNm"},
	{"presmpt_prce_bgn", "presmptPrceBgn"},
	{"presmpt_prce_end", "presmptPrceEnd"},
	{"dtil_prdct_clsfc_no", "dtilPrdctClsfcNo"},
	{"mltsply_cmpt_yn", "mltsplyCmptYn"},
	{"prcrmnt_req_no", "prcrmntReqNo"},
	{"intrntnl_div_cd", "intrntnlDivCd"},
}

var contractParams = []ParamMapping{
	{"dcsn_cntrct_no", "dcsnCntrctNo"},
	{"req_no", "reqNo"},
	{"ntce_no", "ntceNo"},
	{"instt_div_cd", "insttDivCd"},
	{"instt_clsfc_cd", "insttClsfcCd"},
	{"instt_cd", "insttCd"},
	{"instt_nm", "insttNm"},
	{"prdct_clsfc_no_nm", "prdctClsfcNoNm"},
	{"cntrct_mthd_cd", "cntrctMthdCd"},
	{"cntrct_ref_no", "cntrctRefNo"},
	{"cntrct_div_cd", "cntrctDivCd"},
	{"cnstty_nm", "cnsttyNm"},
	{"cnstwk_nm", "cnstwkNm"},
	{"cntrct_nm", "cntrctNm"},
	{"sply_corp_nm", "splyCorpNm"},
	{"make_corp_nm", "makeCorpNm"},
}

var catalog = []*Service{
	{
		Name:        "bid_announcement",
		Description: "Bid announcements searched by Naramarket conditions",
		ServiceType: projection.BidAnnouncement,
		BasePath:    "ad/BidPublicInfoService",
		Operations: []Operation{
			{"construction", "getBidPblancListInfoCnstwkPPSSrch", "construction bid announcements"},
			{"service", "getBidPblancListInfoServcPPSSrch", "service bid announcements"},
			{"goods", "getBidPblancListInfoThngPPSSrch", "goods bid announcements"},
		},
		Params:          bidParams,
		DefaultRows:     10,
		DefaultDaysBack: 7,
		InqryDivs:       []string{"1", "2"},
		DefaultInqryDiv: "1",
		Dates:           DateRule{Style: DateTimeRange, Begin: "inqryBgnDt", End: "inqryEndDt"},
	},
	{
		Name:        "successful_bid",
		Description: "Successful bid lists searched by Naramarket conditions",
		ServiceType: projection.SuccessfulBid,
		BasePath:    "as/ScsbidInfoService",
		Operations: []Operation{
			{"goods", "getScsbidListSttusThngPPSSrch", "successful goods bids"},
			{"construction", "getScsbidListSttusCnstwkPPSSrch", "successful construction bids"},
			{"service", "getScsbidListSttusServcPPSSrch", "successful service bids"},
		},
		Params:          successfulBidParams,
		DefaultRows:     10,
		DefaultDaysBack: 30,
		InqryDivs:       []string{"1", "2", "3"},
		Dates:           DateRule{Style: DateTimeRange, Begin: "inqryBgnDt", End: "inqryEndDt", InqryDivs: []string{"1", "2"}},
		Requires:        map[string]string{"3": "bid_ntce_no"},
	},
	{
		Name:        "contract_info",
		Description: "Contract status searched by Naramarket conditions",
		ServiceType: projection.ContractInfo,
		BasePath:    "ao/CntrctInfoService",
		Operations: []Operation{
			{"goods", "getCntrctInfoListThngPPSSrch", "goods contracts"},
			{"construction", "getCntrctInfoListCnstwkPPSSrch", "construction contracts"},
			{"service", "getCntrctInfoListServcPPSSrch", "service contracts"},
			{"foreign", "getCntrctInfoListFrgcptPPSSrch", "foreign procurement contracts"},
		},
		Params:          contractParams,
		DefaultRows:     10,
		DefaultDaysBack: 30,
		InqryDivs:       []string{"1", "2", "3", "4"},
		Dates:           DateRule{Style: DateRange, Begin: "inqryBgnDate", End: "inqryEndDate", InqryDivs: []string{"1"}},
		Requires: map[string]string{
			"2": "dcsn_cntrct_no",
			"3": "req_no",
			"4": "ntce_no",
		},
	},
	{
		Name:        "procurement_statistics",
		Description: "Public procurement statistics",
		ServiceType: projection.ProcurementStats,
		BasePath:    "at/PubPrcrmntStatInfoService",
		Operations: sameNameOps(
			"getTotlPubPrcrmntSttus", "total public procurement",
			"getInsttDivAccotPrcrmntSttus", "procurement by institution type",
			"getEntrprsDivAccotPrcrmntSttus", "procurement by company type",
			"getCntrctMthdAccotSttus", "by contract method",
			"getRgnLmtSttus", "regional restriction",
			"getRgnDutyCmmnCntrctSttus", "regional mandatory joint contracts",
			"getPrcrmntObjectBsnsObjAccotSttus", "by procurement object",
			"getDminsttAccotEntrprsDivAccotArslt", "per demand institution by company type",
			"getDminsttAccotCntrctMthdAccotArslt", "per demand institution by contract method",
			"getDminsttAccotBsnsObjAccotArslt", "per demand institution by business object",
			"getDminsttAccotSystmTyAccotArslt", "per demand institution by system type",
			"getPrcrmntEntrprsAccotCntrctMthdAccotArslt", "per company by contract method",
			"getPrcrmntEntrprsAccotBsnsObjAccotArslt", "per company by business object",
			"getPrdctIdntNoServcAccotArslt", "per product and service",
		),
		Params: []ParamMapping{
			{"search_base_year", "srchBssYear"},
			{"search_base_month_start", "srchBssYmBgn"},
			{"search_base_month_end", "srchBssYmEnd"},
			{"demand_institution_code", "dminsttCd"},
			{"demand_institution_name", "dminsttNm"},
			{"corp_unity_no", "corpUntyNo"},
			{"corp_name", "corpNm"},
			{"product_classification_no", "prdctClsfcNo"},
			{"product_classification_name", "prdctClsfcNm"},
			{"lower_institution_result_inclusion", "lwrInsttArsltInclsnYn"},
			{"link_system_code", "linkSystmCd"},
		},
		DefaultRows: 5,
	},
	{
		Name:        "product_list",
		Description: "Goods classification and product list information",
		ServiceType: projection.ProductList,
		BasePath:    "ao/ThngListInfoService",
		Operations: sameNameOps(
			"getThngGuidanceMapInfo", "goods guidance map",
			"getThngPrdnmLocplcAccotListInfoInfoPrdlstSearch", "product line list",
			"getThngPrdnmLocplcAccotListInfoInfoPrdnmSearch", "product name list",
			"getThngPrdnmLocplcAccotListInfoInfoLocplcSearch", "location list",
			"getThngListClChangeHistInfo", "classification change history",
			"getLsfgdNdPrdlstChghstlnfoSttus", "product line change history",
			"getPrdctClsfcNoUnit2Info", "2-digit classification",
			"getPrdctClsfcNoUnit4Info", "4-digit classification",
			"getPrdctClsfcNoUnit6Info", "6-digit classification",
			"getPrdctClsfcNoUnit8Info", "8-digit classification",
			"getPrdctClsfcNoUnit10Info", "10-digit classification",
			"getPrdctClsfcNoChgHstry", "classification number change history",
		),
		Params: []ParamMapping{
			{"upper_product_classification_no", "upPrdctClsfcNo"},
			{"product_classification_no", "prdctClsfcNo"},
			{"product_id_no", "prdctIdntNo"},
			{"detail_product_classification_no", "dtilPrdctClsfcNo"},
			{"product_classification_name", "prdctClsfcNoNm"},
			{"product_classification_eng_name", "prdctClsfcNoEngNm"},
			{"korean_product_name", "krnPrdctNm"},
			{"manufacturer_corp_name", "mnfctCorpNm"},
			{"region_code", "rgnCd"},
			{"inquiry_div", "inqryDiv"},
			{"inquiry_start_date", "inqryBgnDt"},
			{"inquiry_end_date", "inqryEndDt"},
			{"change_period_start_date", "chgPrdBgnDt"},
			{"change_period_end_date", "chgPrdEndDt"},
		},
		DefaultRows: 5,
	},
	{
		Name:        "shopping_mall",
		Description: "Naramarket shopping mall product information",
		ServiceType: projection.ShoppingMall,
		BasePath:    "at/ShoppingMallPrdctInfoService",
		Operations: sameNameOps(
			"getMASCntrctPrdctInfoList", "multiple award schedule contract products",
			"getUcntrctPrdctInfoList", "unit price contract products",
			"getThptyUcntrctPrdctInfoList", "third-party unit price contract products",
			"getDlvrReqInfoList", "delivery requests",
			"getDlvrReqDtlInfoList", "delivery request details",
			"getShoppingMallPrdctInfoList", "shopping mall products",
			"getVntrPrdctOrderDealDtlsInfoList", "venture product orders",
			"getSpcifyPrdlstPrcureInfoList", "specified product procurement",
			"getSpcifyPrdlstPrcureTotList", "specified product procurement totals",
		),
		Params: []ParamMapping{
			{"registration_start_date", "rgstDtBgnDt"},
			{"registration_end_date", "rgstDtEndDt"},
			{"change_start_date", "chgDtBgnDt"},
			{"change_end_date", "chgDtEndDt"},
			{"product_classification_name", "prdctClsfcNoNm"},
			{"product_id_no", "prdctIdntNo"},
			{"contract_corp_name", "cntrctCorpNm"},
			{"product_certification", "prodctCertYn"},
			{"inquiry_div", "inqryDiv"},
			{"inquiry_start_date", "inqryBgnDate"},
			{"inquiry_end_date", "inqryEndDate"},
			{"detail_product_classification_name", "dtilPrdctClsfcNoNm"},
			{"product_id_name", "prdctIdntNoNm"},
			{"excellent_product", "exclcProdctYn"},
			{"mas_yn", "masYn"},
			{"shopping_contract_no", "shopngCntrctNo"},
			{"registration_cancel", "regtCncelYn"},
			{"demand_institution_name", "dminsttNm"},
			{"demand_institution_region_name", "dminsttRgnNm"},
			{"delivery_request_no", "dlvrReqNo"},
			{"inquiry_product_div", "inqryPrdctDiv"},
			{"procurement_div", "prcrmntDiv"},
		},
		DefaultRows: 5,
	},
}

// sameNameOps builds operations whose friendly name is the upstream name
// from (name, description) pairs.
func sameNameOps(pairs ...string) []Operation {
	ops := make([]Operation, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		ops = append(ops, Operation{Name: pairs[i], Upstream: pairs[i], Description: pairs[i+1]})
	}
	return ops
}

// LookupService returns the catalog entry named name.
func LookupService(name string) (*Service, error) {
	for _, s := range catalog {
		if s.Name == name {
			return s, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownService, name)
}

// Services returns the catalog in registration order.
func Services() []*Service {
	out := make([]*Service, len(catalog))
	copy(out, catalog)
	return out
}

func ServiceNames() []string {
	names := make([]string, 0, len(catalog))
	for _, s := range catalog {
		names = append(names, s.Name)
	}
	return names
}

// Region is a participation-restricted region code.
type Region struct {
	Code string
	Name string
}

var regions = []Region{
	{"11", "서울특별시"},
	{"26", "부산광역시"},
	{"27", "대구광역시"},
	{"28", "인천광역시"},
	{"29", "광주광역시"},
	{"30", "대전광역시"},
	{"31", "울산광역시"},
	{"36", "세종특별자치시"},
	{"41", "경기도"},
	{"42", "강원도"},
	{"43", "충청북도"},
	{"44", "충청남도"},
	{"45", "전라북도"},
	{"46", "전라남도"},
	{"47", "경상북도"},
	{"48", "경상남도"},
	{"50", "제주도"},
	{"51", "강원특별자치도"},
	{"52", "전북특별자치도"},
	{"99", "기타"},
}

// RegionCodes returns code -> region name.
func RegionCodes() map[string]string {
	out := make(map[string]string, len(regions))
	for _, r := range regions {
		out[r.Code] = r.Name
	}
	return out
}
