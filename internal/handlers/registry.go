package handlers

// AppHandlers собирает все HTTP-обработчики для регистрации маршрутов.
type AppHandlers struct {
	UserHandler         *UserHandler
	ReferenceHandler    *ReferenceHandler
	RequestHandler      *RequestHandler
	DistributionHandler *DistributionHandler
}
