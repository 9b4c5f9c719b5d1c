// Package guides holds the static guidance texts served as MCP resources and
// prompts.
package guides

// Guide is one markdown document exposed to clients.
type Guide struct {
	Name        string
	URI         string
	Description string
	Text        string
}

// Resources are served under guide:// URIs.
var Resources = []Guide{
	{
		Name:        "api-parameter-requirements",
		URI:         "guide://api-parameter-requirements",
		Description: "Required, recommended and optional parameters per API service",
		Text:        parameterRequirements,
	},
	{
		Name:        "parameter-value-examples",
		URI:         "guide://parameter-value-examples",
		Description: "Concrete parameter values, codes and date formats",
		Text:        parameterValueExamples,
	},
	{
		Name:        "common-search-patterns",
		URI:         "guide://common-search-patterns",
		Description: "Frequently used search scenarios and their parameter combinations",
		Text:        commonSearchPatterns,
	},
}

// Prompts are served by name.
var Prompts = []Guide{
	{
		Name:        "workflow_guide",
		Description: "Step by step workflow for analysing public procurement data",
		Text:        workflowGuide,
	},
	{
		Name:        "parameter_selection_guide",
		Description: "How to choose and tune API parameters",
		Text:        parameterSelectionGuide,
	},
	{
		Name:        "real_world_query_examples",
		Description: "Query examples for real procurement analysis scenarios",
		Text:        realWorldQueryExamples,
	},
}

// Resource returns the resource registered under uri.
func Resource(uri string) (Guide, bool) {
	for _, g := range Resources {
		if g.URI == uri {
			return g, true
		}
	}
	return Guide{}, false
}

const parameterRequirements = `# 정부조달 API 파라미터 가이드

## 입찰공고 (get_bid_announcement_construction / _service / _goods)
- inqry_div: "1" 공고게시일시 (기본값), "2" 개찰일시
- days_back: 조회 기간, 기본 7일. 날짜는 inqryBgnDt/inqryEndDt (YYYYMMDDHHMM) 로 자동 변환
- params 예: bid_ntce_nm (공고명), ntce_instt_nm (공고기관명), prtcpt_lmt_rgn_cd (참가제한지역코드)

## 낙찰정보 (get_successful_bid_list_goods / _construction / _service)
- inqry_div 필수: "1" 공고게시일시, "2" 개찰일시, "3" 입찰공고번호
- inqry_div "3" 이면 params.bid_ntce_no 필수, 날짜 범위는 보내지 않음
- days_back: 기본 30일 ("1", "2" 에만 적용)

## 계약정보 (get_contract_info_goods / _construction / _service / _foreign)
- inqry_div 필수: "1" 계약체결일자, "2" 확정계약번호, "3" 요청번호, "4" 공고번호
- "2" 는 params.dcsn_cntrct_no, "3" 은 params.req_no, "4" 는 params.ntce_no 필수
- days_back: 기본 30일, inqryBgnDate/inqryEndDate (YYYYMMDD) 로 변환 ("1" 에만 적용)

## 공공조달통계 (call_procurement_statistics_api)
- operation 필수. 예: getTotlPubPrcrmntSttus
- params.search_base_year (YYYY) 강력 권장
- 기관/기업별 실적은 demand_institution_code 또는 corp_unity_no 권장

## 물품목록 (call_product_list_api)
- operation 필수. 예: getPrdctClsfcNoUnit2Info ~ getPrdctClsfcNoUnit10Info
- 계층 조회시 params.upper_product_classification_no 권장

## 종합쇼핑몰 (call_shopping_mall_api)
- operation 필수. 예: getMASCntrctPrdctInfoList
- params.product_classification_name 또는 params.contract_corp_name 중 하나 이상 권장

## 공통 원칙
1. num_of_rows 는 5-10 권장 (컨텍스트 보호)
2. 결과가 없으면 조건을 넓혀 다시 조회
3. response_format (minimal, summary, key_fields) 또는 fields 로 응답 크기를 줄일 것
`

const parameterValueExamples = `# 파라미터 값 예시

## 조회구분 (inqry_div)
- 입찰공고: "1" 공고게시일시, "2" 개찰일시
- 낙찰정보: "1" 공고게시일시, "2" 개찰일시, "3" 입찰공고번호
- 계약정보: "1" 계약체결일자, "2" 확정계약번호, "3" 요청번호, "4" 공고번호

## 날짜 형식
- YYYYMMDDHHMM: "202409151430" (입찰공고, 낙찰정보)
- YYYYMMDD: "20240915" (계약정보, 쇼핑몰)
- YYYYMM: "202409" (통계 월 범위)
- YYYY: "2024" (통계 기준연도)

## 검색어
- 품명: "컴퓨터", "프린터", "의료기기", "소프트웨어"
- 업체명: "삼성전자", "LG전자"
- 기관명: "교육부", "국방부", "서울특별시"

## 지역코드 (prtcpt_lmt_rgn_cd)
- "11" 서울특별시, "26" 부산광역시, "41" 경기도, "50" 제주도
- 전체 목록은 get_region_codes 도구로 확인

## 페이지
- num_of_rows: 5, 10, 20
- page_no: 1 부터 시작
`

const commonSearchPatterns = `# 자주 사용되는 검색 패턴

## 최근 입찰공고
- 도구: get_bid_announcement_goods
- 설정: days_back=7, num_of_rows=10, response_format="summary"

## 특정 공고의 낙찰 결과
- 도구: get_successful_bid_list_goods
- 설정: inqry_div="3", params={"bid_ntce_no": "<공고번호>"}

## 기관별 계약 현황
- 도구: get_contract_info_service
- 설정: inqry_div="1", days_back=90, params={"instt_nm": "교육부"}

## 연도별 조달 규모
- 도구: get_procurement_statistics_by_year
- 설정: year="2024"

## 쇼핑몰 제품 조사
- 도구: search_shopping_mall_products
- 설정: product_name="컴퓨터", num_of_rows=10
- 상세 속성은 crawl_list 결과 항목을 get_detailed_attributes 에 전달

## 대용량 데이터 탐색
1. get_data_exploration_guide 로 권장 페이지 크기 확인
2. call_api_with_pagination_support 로 첫 페이지 조회
3. pagination.next_page_request 를 그대로 다시 전달
`

const workflowGuide = `# 정부조달 데이터 분석 워크플로우

## 1. 탐색
- get_all_api_services_info 로 서비스와 오퍼레이션 목록 확인
- get_response_field_info 로 서비스별 필드와 응답 형식 확인

## 2. 입찰 동향
- get_bid_announcement_construction / _service / _goods
- days_back 7-30, 기관명 또는 지역 조건 활용

## 3. 낙찰 분석
- get_successful_bid_list_goods / _construction / _service
- inqry_div="1", days_back=30 으로 가격대와 낙찰 방식 파악

## 4. 계약 분석
- get_contract_info_goods / _construction / _service / _foreign
- inqry_div="1", days_back 30-90 으로 계약 규모와 기관별 패턴 파악

## 5. 시장 규모
- get_procurement_statistics_by_year 또는 call_procurement_statistics_api
- 최근 2-3년을 비교

## 응답 크기 관리
- 처음에는 response_format="minimal" 과 num_of_rows 5-10
- check_response_size 로 큰 응답을 점검
`

const parameterSelectionGuide = `# 파라미터 선택 가이드

## 항상 고려할 것
- num_of_rows: 초기 탐색 5-10, 상세 분석 10-20, 전체 조회는 페이징
- page_no: 1 부터
- operation: 통계, 물품목록, 쇼핑몰 서비스에서 필수

## 날짜 범위
- 최신 동향: 7-30일
- 추세 분석: 90-180일
- 연간 비교: 통계 API 의 기준연도

## 응답 형식
- minimal: 식별자와 이름만
- summary: 핵심 금액과 일자 포함
- key_fields: 분석에 필요한 주요 필드
- fields: 필요한 필드를 직접 지정 (response_format 보다 우선)

## 오류 대응
- 400: 파라미터 조합 확인 (inqry_div 별 필수 파라미터)
- 502/504: 잠시 후 재시도하거나 조회 범위를 줄임
`

const realWorldQueryExamples = `# 실제 분석 시나리오

## IT 장비 공급업체의 시장 진입
1. get_bid_announcement_goods(days_back=30, num_of_rows=10, params={"bid_ntce_nm": "컴퓨터"})
2. get_successful_bid_list_goods(inqry_div="1", days_back=90, response_format="summary")
3. search_shopping_mall_products(product_name="컴퓨터", num_of_rows=10)

## 지역 공사업체의 시장 분석
1. get_procurement_statistics_by_year(year="2024")
2. get_bid_announcement_construction(days_back=60, params={"prtcpt_lmt_rgn_cd": "41"})
3. get_contract_info_construction(inqry_div="1", days_back=90)

## 특정 입찰의 추적
1. get_bid_announcement_service(params={"bid_ntce_nm": "유지보수"})
2. get_successful_bid_list_service(inqry_div="3", params={"bid_ntce_no": "<공고번호>"})

## 쇼핑몰 제품 속성 수집
1. crawl_list(category="데스크톱컴퓨터", num_of_rows=20)
2. get_detailed_attributes(api_item=<crawl_list 항목>)
`
