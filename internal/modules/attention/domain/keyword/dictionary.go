package keyword

// Amazon 電商關鍵字清單（含常見變化寫法與縮寫），可依實際需求持續擴充。
// 條目順序即比對輸出順序，大小寫變體視為獨立條目，調整時需同步更新相關測試。
var Dictionary = []string{
	// 廣告相關
	"ACOS", "acos", "Acos", "廣告花費佔比", "廣告成本佔比",
	"ROAS", "roas", "Roas", "廣告投資報酬率",
	"PPC", "ppc", "Ppc", "點擊付費", "按點擊付費",
	"Sponsored Products", "sponsored products", "贊助商品", "贊助商品廣告",
	"DSP", "dsp", "Dsp", "需求方平台",

	// 銷售指標
	"轉化率", "轉換率", "轉換率(Conversion Rate)", "Conversion Rate", "conversion rate",
	"CVR", "cvr", // CVR 為轉換率常用縮寫
	"點擊率", "點擊率(CTR)", "CTR", "ctr", "點閱率",
	"銷售排名", "BSR", "bsr", "Best Sellers Rank", "best sellers rank", "暢銷排名",

	// 產品優化
	"A+內容", "A+ Content", "a+內容", "a+ content", "A+頁面", "A+頁面設計",
	"品牌註冊", "Brand Registry", "brand registry", "品牌登記",
	"關鍵字優化", "Keyword Optimization", "keyword optimization", "關鍵字優化策略",

	// 評價管理
	"產品評價", "商品評價", "評價管理", "商品評論", "產品評論",
	"負面評價", "負評", "負面評價處理", "負評處理", "差評", "負面評論",
}
