package roomhandler

type RoomInfoResponse struct {
	Code    string `json:"code"    example:"ABCDEF"`
	Members int    `json:"members" example:"2"`
} // @name RoomInfoResponse

type ErrorResponse struct {
	Error string `json:"error"`
} // @name ErrorResponse

type HistoryQuery struct {
	Limit int `form:"limit,default=0" binding:"gte=0,lte=50"`
} // @name HistoryQuery
