package ai

// locale holds the fallback narrative strings for one language.
type locale struct {
	high, medium, low string // %d score, %s kind
	contract, wallet  string
	kindContract      string
	kindWallet        string
	tokenSuffix       string // %s token label
	liquidity         string // %s amount
	noLiquidity       string
	bundles           string // %d groups
	closer            string
}

var locales = map[string]locale{
	LangEN: {
		high:         "High risk (%d/100): several red flags around this %s.",
		medium:       "Medium risk (%d/100): some signals around this %s need a closer look.",
		low:          "Lower risk (%d/100): no strong red flags for this %s in the sources that answered.",
		contract:     "The address is a contract%s.",
		wallet:       "The address is a wallet (externally owned account).",
		kindContract: "contract",
		kindWallet:   "wallet",
		tokenSuffix:  " for token %s",
		liquidity:    "Best DEX pair liquidity is %s.",
		noLiquidity:  "No liquidity data was available.",
		bundles:      "%d bundle group(s) of top holders share a first funder.",
		closer:       "Verify each point via the evidence links.",
	},
	LangZH: {
		high:         "高风险（%d/100）：该%s存在多项危险信号。",
		medium:       "中等风险（%d/100）：该%s的部分信号需要进一步核实。",
		low:          "较低风险（%d/100）：已响应的数据源中未发现该%s的明显危险信号。",
		contract:     "该地址是合约%s。",
		wallet:       "该地址是普通钱包（外部账户）。",
		kindContract: "合约",
		kindWallet:   "钱包",
		tokenSuffix:  "（代币 %s）",
		liquidity:    "最佳交易对流动性为 %s。",
		noLiquidity:  "暂无流动性数据。",
		bundles:      "发现 %d 组头部持有人共享同一初始资金来源。",
		closer:       "请通过证据链接逐项核实。",
	},
	LangJA: {
		high:         "高リスク（%d/100）：この%sには複数の危険信号があります。",
		medium:       "中リスク（%d/100）：この%sのいくつかのシグナルは追加確認が必要です。",
		low:          "低めのリスク（%d/100）：応答したデータソースではこの%sに強い危険信号は見つかりませんでした。",
		contract:     "このアドレスはコントラクトです%s。",
		wallet:       "このアドレスはウォレット（外部所有アカウント）です。",
		kindContract: "コントラクト",
		kindWallet:   "ウォレット",
		tokenSuffix:  "（トークン %s）",
		liquidity:    "最良ペアの流動性は %s です。",
		noLiquidity:  "流動性データはありません。",
		bundles:      "%d 組の上位保有者が同じ初期資金源を共有しています。",
		closer:       "各項目は証拠リンクで確認してください。",
	},
	LangKO: {
		high:         "높은 위험 (%d/100): 이 %s에서 여러 위험 신호가 발견되었습니다.",
		medium:       "중간 위험 (%d/100): 이 %s의 일부 신호는 추가 확인이 필요합니다.",
		low:          "낮은 위험 (%d/100): 응답한 데이터 소스에서 이 %s의 뚜렷한 위험 신호는 없습니다.",
		contract:     "이 주소는 컨트랙트입니다%s.",
		wallet:       "이 주소는 지갑(외부 소유 계정)입니다.",
		kindContract: "컨트랙트",
		kindWallet:   "지갑",
		tokenSuffix:  " (토큰 %s)",
		liquidity:    "최적 페어 유동성은 %s입니다.",
		noLiquidity:  "유동성 데이터가 없습니다.",
		bundles:      "%d개 상위 보유자 그룹이 동일한 최초 자금 출처를 공유합니다.",
		closer:       "증거 링크로 각 항목을 확인하세요.",
	},
}
