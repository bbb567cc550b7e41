package api

func (s *Server) setupRoutes() {
	s.router.GET("/", s.workerHandler.GetInfo)
	s.router.GET("/health", s.healthHandler.HealthCheck)

	s.router.POST("/start_capture", s.captureHandler.StartCapture)
	s.router.POST("/stop_capture", s.captureHandler.StopCapture)
	s.router.GET("/capture/status", s.captureHandler.Status)

	s.router.GET("/frame", s.detectionHandler.GetFrame)
	s.router.GET("/unprocessed_frame", s.detectionHandler.GetUnprocessedFrame)
	s.router.GET("/detections", s.detectionHandler.GetDetections)
	s.router.POST("/detect", s.detectionHandler.Detect)
	s.router.GET("/model", s.detectionHandler.GetModel)
	s.router.POST("/model", s.detectionHandler.ChangeModel)
	s.router.GET("/detection-service", s.detectionHandler.GetDetectionService)
	s.router.POST("/detection-service", s.detectionHandler.SwitchDetectionService)

	s.router.GET("/stream", s.streamHandler.StreamMJPEG)
	s.router.GET("/ws/detections", s.streamHandler.Detections)

	logs := s.router.Group("/logs")
	{
		logs.POST("", s.logsHandler.PostLog)
		logs.GET("", s.logsHandler.GetLogs)
		logs.POST("/clear", s.logsHandler.ClearLogs)
		logs.GET("/:level", s.logsHandler.GetLogsByLevel)
	}

	system := s.router.Group("/system")
	{
		system.GET("/stats", s.systemHandler.GetStats)
	}

	worker := s.router.Group("/worker")
	{
		worker.POST("/shutdown", s.workerHandler.Shutdown)
	}
}
