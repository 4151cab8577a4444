package assets

// ServiceName is used as tracer and resource identity across the program.
const ServiceName = "extsvc"
