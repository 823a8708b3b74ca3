// Package cv holds the embedded CV content used to seed the fallback
// vector store when no database is configured, plus the sample questions
// exposed by the API.
package cv

import "github.com/mdelehaye/cvchat/pkg/types"

// Section is one titled block of CV content.
type Section struct {
	Title   string
	Content string
}

// Sections is the embedded CV of Mathieu Delehaye, mirrored from the
// deployed cv_embeddings table so the service can answer without it.
var Sections = []Section{
	{
		Title: "Professional Summary",
		Content: `Mathieu Delehaye is a Software engineer with 10+ years of experience delivering robust,
high-performance systems across cybersecurity, embedded, health tech, and finance. Currently pursuing
a part-time MSc in Financial Mathematics at Queen Mary University of London to learn, gain exposure,
and transition into the quantitative finance industry, with a strong focus on high-frequency trading (HFT)
and asset management. Combining engineering rigour, real-time systems experience, and strong mathematical foundations.
Eligible to work in the UK.`,
	},
	{
		Title: "Current Education",
		Content: `MSc Financial Mathematics (part-time), expected First-Class at Queen Mary University of London (2024 - 2026).
Modules include: Mathematical Modelling in Finance, Advanced Derivatives Pricing and Risk Management (hedging,
diversification and mean-variance analysis, utility maximisation), Continuous-Time Models in Finance,
Financial Markets and Instruments, Machine Learning with Python, Neural Networks and Deep Learning,
C++ for Finance, Advanced Computing in Finance.`,
	},
	{
		Title: "Recent Experience - Verimatrix",
		Content: `Senior Software Engineer (Cybersecurity) at Verimatrix (2021 - 2024) in UK.
- Developed C/C++/Python protection tools with SQL for anti-tamper and obfuscation in client software (e.g., JPMorgan, Dolby)
- Reduced runtime overhead by 50% with a lightweight security mode
- Contributed to a client-facing React/Python Flask visualisation tool
- Implemented anti-debugging protections on Android/Linux by bypassing kernel-level restrictions
- Diagnosed low-level issues using gdb, pdb, Procmon, and Ghidra
- Refactored Jenkins pipelines to support parallel builds, reducing build times by 25%`,
	},
	{
		Title: "Health Tech Experience - Metix Medical",
		Content: `Software Engineer (Digital Health) at Metix Medical (2020 - 2021) in UK.
- Designed ECG digital filters in Python/Numpy/SciPy and implemented in embedded C for DSP
- Developed C++/Qt software on Yocto Linux, aligned with ISO 13485 and UX specs`,
	},
	{
		Title: "Transportation Experience - Alstom",
		Content: `Software Engineering Consultant (Transportation) at Alstom via Abylsen (2019 - 2020) in Belgium.
- Developed real-time signalling software in C and PLC (CODESYS) to improve train driver awareness and reduce operational incidents
- Engineered automatic reconnection with the train's central computer and resolved TCP/CIP buffer overflow issues using Wireshark
- Increased system robustness and reusability with shared libraries; implemented secure driver authentication using a C-based SHA-1 hashing library`,
	},
	{
		Title: "Finance and Government Experience - Smals",
		Content: `Project Manager (eGovernment, Finance) at Smals (2013 - 2019) in Belgium.
- Developed Python/SQL tools for automating access to tax and income data
- Managed projects for finance and healthcare; maintained SOAP services
- Delivered citizen records to tax authorities and banks`,
	},
	{
		Title: "Embedded Systems Experience - Alpha Technologies",
		Content: `Embedded Software Engineer (Energy) at Alpha Technologies (2012 - 2013) in Belgium.
- Built embedded C#/.NET systems with CAN and TCP for power monitoring
- Designed load balancing algorithm that reduced energy loss by 15%`,
	},
	{
		Title: "Projects",
		Content: `FintechModeler (2023 - 2025): Python/Pandas/C++ app to price European options using
Black-Scholes and binomial models; GUI and REST API deployed on Azure.
Available at github.com/mathieudelehaye/FintechModeler`,
	},
	{
		Title: "Previous Education",
		Content: `MEng Electrical Engineering & Master in Management, 2:1 from University of Mons.
Modules: Statistics, Signal Processing, Modern Physics, Electronic Systems, Computer Networks, Microeconomics.
Finance project: Statistical analysis of quality regulation impact on company ROA/ROS in R.
Electronic project: LCD scrolling message display using Xilinx Spartan FPGA and Verilog; debugged and optimised with logic analyser.
Dissertation: Unsupervised ML for tumour detection in medical imaging using K-means and transforms (Fourier, Cosine, Wavelet).`,
	},
	{
		Title: "Technical Skills",
		Content: `Programming Languages: Python (5 years), C++, Embedded C, C#, SQL, Bash, VBA/Excel, MATLAB, R
Technologies: NumPy, Pandas, SciPy, Bluetooth, TCP/IP, CAN bus, Linux, DSP, real-time systems,
multithreading (pthreads, std::thread), Jenkins, Docker, Git, Kubernetes, AWS (EC2, S3), Azure, REST APIs, React, scikit-learn
Tools: gdb, pdb, Procmon, Ghidra, Bloomberg Terminal
Finance: statistical testing, mathematical modelling for finance, derivatives pricing, risk management
Methodologies: Agile/Scrum, CI/CD pipelines
Soft Skills: communication, problem-solving`,
	},
	{
		Title: "Languages and Certifications",
		Content: `Languages: English (C1), French (native), Dutch (intermediate)
Certifications: Bloomberg BMC, ITIL Foundation`,
	},
	{
		Title: "Contact Information",
		Content: `Location: London, UK
Email: mathieu.delehaye@gmail.com
Phone: +44 7831 254 658
LinkedIn: linkedin.com/in/mathieudelehaye
GitHub: github.com/mathieudelehaye`,
	},
}

// Documents converts the embedded sections into store documents.
func Documents() []*types.Document {
	docs := make([]*types.Document, 0, len(Sections))
	for _, s := range Sections {
		doc := &types.Document{
			Title:   s.Title,
			Content: s.Content,
			Source:  "cv",
		}
		doc.ID = doc.GenerateID()
		docs = append(docs, doc)
	}
	return docs
}

// SampleQuestions are the example questions exposed by the API.
var SampleQuestions = []string{
	"What is Mathieu's experience in cybersecurity?",
	"Tell me about Mathieu's education in financial mathematics",
	"What programming languages does Mathieu know best?",
	"Describe Mathieu's transition from engineering to finance",
	"What embedded systems experience does Mathieu have?",
	"Tell me about Mathieu's work at Verimatrix",
	"What machine learning projects has Mathieu worked on?",
	"How long has Mathieu been working in software engineering?",
	"What is the FintechModeler project?",
	"Describe Mathieu's experience with real-time systems",
}
